package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"shelflife/internal/client"
	"shelflife/internal/tui"
)

func main() {
	// Missing .env is fine; plain environment variables still apply.
	godotenv.Load()

	baseURL := os.Getenv("SHELFLIFE_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	deviceID, err := loadDeviceID()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up device id: %v\n", err)
		os.Exit(1)
	}

	api := client.New(baseURL, deviceID)
	if token := os.Getenv("SHELFLIFE_TOKEN"); token != "" {
		api.SetToken(token)
	}

	policy := tui.Policy{
		ExclusiveBusy: strings.EqualFold(os.Getenv("SHELFLIFE_EXCLUSIVE_BUSY"), "true"),
	}

	program := tea.NewProgram(tui.NewApp(api, policy), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadDeviceID reads the per-machine identifier, creating one on first run.
// It is what keeps anonymous data attached to this device across restarts.
func loadDeviceID() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(configDir, "shelflife")
	path := filepath.Join(dir, "device_id")

	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", err
	}
	return id, nil
}
