package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
)

const healthPath = "/healthz"

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	Ready    bool
	Current  string
	Progress int
	Steps    []StartupStep
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepTemplates  = "Loading templates"
	StepServices   = "Initializing services"
	StepReady      = "Server ready"
)

func newStartupStatus() *StartupStatus {
	names := []string{StepDatabase, StepMigrations, StepTemplates, StepServices, StepReady}
	s := &StartupStatus{Current: "Initializing..."}
	for _, n := range names {
		s.Steps = append(s.Steps, StartupStep{Name: n})
	}
	return s
}

var startupStatus = newStartupStatus()

// SetCurrentStep updates the current initialization step
func SetCurrentStep(step string) {
	startupStatus.mu.Lock()
	defer startupStatus.mu.Unlock()
	startupStatus.Current = step
}

// CompleteStep marks a step as completed and updates progress
func CompleteStep(stepName string) {
	startupStatus.mu.Lock()
	defer startupStatus.mu.Unlock()

	for i := range startupStatus.Steps {
		if startupStatus.Steps[i].Name == stepName {
			startupStatus.Steps[i].Completed = true
			break
		}
	}

	completed := 0
	for _, step := range startupStatus.Steps {
		if step.Completed {
			completed++
		}
	}
	startupStatus.Progress = (completed * 100) / len(startupStatus.Steps)
}

// MarkReady marks the server as fully initialized
func MarkReady() {
	CompleteStep(StepReady)
	startupStatus.mu.Lock()
	defer startupStatus.mu.Unlock()
	startupStatus.Ready = true
	startupStatus.Current = StepReady
	startupStatus.Progress = 100
}

// MarkShuttingDown makes the health check fail so load balancers drain
func MarkShuttingDown() {
	startupStatus.mu.Lock()
	defer startupStatus.mu.Unlock()
	startupStatus.Ready = false
	startupStatus.Current = "Shutting down"
}

// IsReady returns whether the server is fully initialized
func IsReady() bool {
	startupStatus.mu.RLock()
	defer startupStatus.mu.RUnlock()
	return startupStatus.Ready
}

// ShowStartupStatus reports readiness as JSON; 503 until ready
func ShowStartupStatus(w http.ResponseWriter, r *http.Request) {
	startupStatus.mu.RLock()
	body := struct {
		Ready    bool          `json:"ready"`
		Current  string        `json:"current"`
		Progress int           `json:"progress"`
		Steps    []StartupStep `json:"steps"`
	}{
		Ready:    startupStatus.Ready,
		Current:  startupStatus.Current,
		Progress: startupStatus.Progress,
		Steps:    append([]StartupStep(nil), startupStatus.Steps...),
	}
	startupStatus.mu.RUnlock()

	status := http.StatusOK
	if !body.Ready {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
