package serializer

import "errors"

var (
	errEmptyPayload       = errors.New("serializer: empty payload")
	errEmptyBatch         = errors.New("serializer: batch must not be empty")
	errMissingErrorFields = errors.New("serializer: error object missing code/message")
	errUnrecognizedShape  = errors.New("serializer: could not identify entity shape")
	errMalformedNotEncodable = errors.New("serializer: malformed entities cannot be encoded")
	errUnknownEntity      = errors.New("serializer: unknown entity type")
)
