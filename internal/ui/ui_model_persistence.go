package ui

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

type uiModelPersistenceData struct {
	LastProgramID string `json:"last_program_id"`
	LastMode      string `json:"last_mode"`
}

// uiModelPersistence remembers the selected program and screen between runs
type uiModelPersistence struct {
	filePath string
	logger   *log.Logger

	mu   sync.Mutex
	data uiModelPersistenceData
}

// newUIModelPersistence loads dataDir/ui_state.json. An empty dataDir keeps state in memory only.
func newUIModelPersistence(logger *log.Logger, dataDir string) *uiModelPersistence {
	p := &uiModelPersistence{logger: logger}
	if dataDir != "" {
		p.filePath = filepath.Join(dataDir, persistenceFileName)
	}
	p.load()
	return p
}

func (p *uiModelPersistence) getLastProgramID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.LastProgramID
}

func (p *uiModelPersistence) setLastProgramID(programID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.LastProgramID == programID {
		return
	}
	p.logger.Printf("UIModelPersistence: setLastProgramID -> %q", programID)
	p.data.LastProgramID = programID
	p.saveLocked()
}

func (p *uiModelPersistence) getLastMode() (UIMode, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return GetUIModeByName(p.data.LastMode)
}

func (p *uiModelPersistence) setLastMode(mode UIMode) {
	info, ok := GetUIModeInfo(mode)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.LastMode == info.Name {
		return
	}
	p.data.LastMode = info.Name
	p.saveLocked()
}

func (p *uiModelPersistence) load() {
	if p.filePath == "" {
		return
	}
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("UIModelPersistence: load %s (no existing file)", p.filePath)
		return
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		p.logger.Printf("UIModelPersistence: load %s failed to parse: %v", p.filePath, err)
		p.data = uiModelPersistenceData{}
		return
	}
	p.logger.Printf("UIModelPersistence: load %s -> program=%q mode=%q", p.filePath, p.data.LastProgramID, p.data.LastMode)
}

// saveLocked writes the file. Must be called with mu held
func (p *uiModelPersistence) saveLocked() {
	if p.filePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.filePath), persistenceDirPerms); err != nil {
		p.logger.Printf("UIModelPersistence: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("UIModelPersistence: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, persistenceFilePerms); err != nil {
		p.logger.Printf("UIModelPersistence: save %s failed: %v", p.filePath, err)
	}
}
