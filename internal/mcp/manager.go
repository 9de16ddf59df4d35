package mcp

import (
	"context"
	"fmt"
	"sync"

	"standin/internal/config"
	"standin/internal/logger"
	"standin/internal/tool"
)

// Manager starts the configured MCP servers and registers their tools.
type Manager struct {
	clients  map[string]*Client
	registry *tool.Registry
	log      *logger.Logger
	mu       sync.RWMutex
}

func NewManager(registry *tool.Registry, log *logger.Logger) *Manager {
	return &Manager{
		clients:  make(map[string]*Client),
		registry: registry,
		log:      log,
	}
}

// Initialize starts all enabled servers from config, concurrently. Partial
// failure degrades with a warning; initialization fails only when every
// configured server fails.
func (m *Manager) Initialize(ctx context.Context, cfg config.MCPConfig) error {
	enabled := make([]config.MCPServerConfig, 0, len(cfg.Servers))
	for _, serverCfg := range cfg.Servers {
		if !serverCfg.Disabled {
			enabled = append(enabled, serverCfg)
		}
	}
	if len(enabled) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(enabled))
	okCount := 0

	for _, serverCfg := range enabled {
		wg.Add(1)
		go func(cfg config.MCPServerConfig) {
			defer wg.Done()
			if err := m.startServer(ctx, cfg); err != nil {
				errChan <- fmt.Errorf("server %s: %w", cfg.Name, err)
			}
		}(serverCfg)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	okCount = len(enabled) - len(errs)

	if len(errs) > 0 && okCount == 0 {
		return fmt.Errorf("all MCP servers failed to initialize: %v", errs)
	}

	for _, err := range errs {
		m.log.Warn("MCP server skipped: %v", err)
	}
	if okCount > 0 {
		m.log.Info("Loaded %d MCP server(s)", okCount)
	}

	return nil
}

func (m *Manager) startServer(ctx context.Context, serverCfg config.MCPServerConfig) error {
	client, err := NewClient(ctx, serverCfg.Name, serverCfg.Command, serverCfg.Args, config.ExpandEnvMap(serverCfg.Env))
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mcpTool := range client.Tools() {
		adapter := NewToolAdapter(client, mcpTool)
		if err := m.registry.Register(adapter); err != nil {
			client.Close()
			return fmt.Errorf("failed to register tool %s: %w", adapter.Name(), err)
		}
	}

	m.clients[serverCfg.Name] = client
	return nil
}

// Close shuts down all server connections.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, client := range m.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("server %s: %w", name, err))
		}
	}
	m.clients = make(map[string]*Client)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing servers: %v", errs)
	}
	return nil
}

// ServerCount returns the number of connected servers.
func (m *Manager) ServerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
