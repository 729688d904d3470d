// file: cmd/jsonrpcx-serve/monitor.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dkoosis/jsonrpcx/endpoint"
	"github.com/dkoosis/jsonrpcx/entity"
	"github.com/dkoosis/jsonrpcx/rpcconfig"
	"github.com/dkoosis/jsonrpcx/transport"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor <addr>",
	Short: "Watch a running jsonrpcx endpoint's liveness and latency",
	Args:  cobra.ExactArgs(1),
	RunE:  runMonitor,
}

// pingResult is one observed round trip, fed to the TUI as a tea.Msg.
type pingResult struct {
	ok      bool
	latency time.Duration
	err     error
}

func runMonitor(cmd *cobra.Command, args []string) error {
	addr := args[0]
	cfg, err := rpcconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}

	conn, err := transport.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("monitor: dial %s: %w", addr, err)
	}
	s, err := cfg.NewStream(conn, conn, conn)
	if err != nil {
		return err
	}
	ep := endpoint.New(s, endpoint.Options{Separator: cfg.Separator, DefaultTimeout: cfg.DefaultTimeout})
	ep.Start()
	defer ep.Close()

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return monitorHeadless(ep, addr)
	}
	return monitorTUI(ep, addr)
}

func monitorHeadless(ep *endpoint.Endpoint, addr string) error {
	fmt.Printf("monitoring %s (headless)\n", addr)
	for i := 0; ; i++ {
		r := ping(ep)
		if r.ok {
			fmt.Printf("[%d] pong in %s\n", i, r.latency)
		} else {
			fmt.Printf("[%d] ping failed: %v\n", i, r.err)
		}
		time.Sleep(time.Second)
	}
}

func monitorTUI(ep *endpoint.Endpoint, addr string) error {
	p := tea.NewProgram(newMonitorModel(addr))
	go func() {
		for {
			p.Send(ping(ep))
			time.Sleep(time.Second)
		}
	}()
	_, err := p.Run()
	return err
}

func ping(ep *endpoint.Endpoint) pingResult {
	start := time.Now()
	_, err := ep.CallTimeout(context.Background(), "system", "Ping", entity.NoParams, 2*time.Second)
	if err != nil {
		return pingResult{ok: false, err: err}
	}
	return pingResult{ok: true, latency: time.Since(start)}
}

type monitorModel struct {
	addr       string
	pings      int
	failures   int
	lastResult pingResult
}

func newMonitorModel(addr string) monitorModel {
	return monitorModel{addr: addr}
}

func (m monitorModel) Init() tea.Cmd { return nil }

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pingResult:
		m.pings++
		if !msg.ok {
			m.failures++
		}
		m.lastResult = msg
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

var (
	monitorTitleStyle = lipgloss.NewStyle().Bold(true)
	monitorOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	monitorFailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m monitorModel) View() string {
	status := "waiting for first ping..."
	if m.pings > 0 {
		if m.lastResult.ok {
			status = monitorOKStyle.Render(fmt.Sprintf("pong in %s", m.lastResult.latency))
		} else {
			status = monitorFailStyle.Render(fmt.Sprintf("ping failed: %v", m.lastResult.err))
		}
	}
	return fmt.Sprintf(
		"%s\n\nendpoint: %s\npings sent: %d  failures: %d\n%s\n\npress q to quit\n",
		monitorTitleStyle.Render("jsonrpcx monitor"), m.addr, m.pings, m.failures, status,
	)
}
