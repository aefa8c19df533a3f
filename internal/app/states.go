// Package app provides save state functionality for the NES emulator.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gones/internal/system"
)

// StateManager manages save states
type StateManager struct {
	saveDirectory string
	maxSlots      int
	initialized   bool
}

// saveFile is the on-disk envelope around a System save-state blob: just
// enough metadata to list slots and reject loading a state captured
// against a different ROM, without re-deriving anything the blob itself
// already carries.
type saveFile struct {
	Timestamp   time.Time       `json:"timestamp"`
	ROMPath     string          `json:"rom_path"`
	SlotNumber  int             `json:"slot_number"`
	Description string          `json:"description"`
	Blob        json.RawMessage `json:"blob"`
}

// StateSlotInfo contains information about a save state slot
type StateSlotInfo struct {
	SlotNumber  int       `json:"slot_number"`
	Used        bool      `json:"used"`
	Timestamp   time.Time `json:"timestamp"`
	ROMPath     string    `json:"rom_path"`
	Description string    `json:"description"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
}

// NewStateManager creates a new state manager
func NewStateManager(saveDirectory string) *StateManager {
	manager := &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      10, // Default to 10 save slots
		initialized:   false,
	}

	if err := manager.initialize(); err != nil {
		// Log error but continue
		fmt.Printf("Warning: State manager initialization failed: %v\n", err)
	}

	return manager
}

// initialize initializes the state manager
func (sm *StateManager) initialize() error {
	if err := os.MkdirAll(sm.saveDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %v", err)
	}

	sm.initialized = true
	return nil
}

// SaveState saves the current emulator state to a slot
func (sm *StateManager) SaveState(sys *system.System, slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}
	if sys == nil {
		return fmt.Errorf("system cannot be nil")
	}

	blob, err := sys.SaveState()
	if err != nil {
		return fmt.Errorf("failed to capture state: %v", err)
	}

	file := &saveFile{
		Timestamp:   time.Now(),
		ROMPath:     romPath,
		SlotNumber:  slot,
		Description: fmt.Sprintf("Auto-save %s", time.Now().Format("2006-01-02 15:04:05")),
		Blob:        blob,
	}

	return sm.saveToFile(file, sm.getSlotFilePath(slot, romPath))
}

// LoadState loads a saved state from a slot
func (sm *StateManager) LoadState(sys *system.System, slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}
	if sys == nil {
		return fmt.Errorf("system cannot be nil")
	}

	filePath := sm.getSlotFilePath(slot, romPath)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("save state not found in slot %d", slot)
	}

	file, err := sm.loadFromFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to load state: %v", err)
	}
	if file.ROMPath != romPath {
		return fmt.Errorf("save state is for a different ROM")
	}

	if err := sys.LoadState(file.Blob); err != nil {
		return fmt.Errorf("failed to restore state: %v", err)
	}
	return nil
}

// saveToFile saves a state envelope to a file
func (sm *StateManager) saveToFile(file *saveFile, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %v", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %v", err)
	}

	return nil
}

// loadFromFile loads a state envelope from a file
func (sm *StateManager) loadFromFile(filePath string) (*saveFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}

	var file saveFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %v", err)
	}

	return &file, nil
}

// getSlotFilePath generates the file path for a save slot
func (sm *StateManager) getSlotFilePath(slot int, romPath string) string {
	romName := filepath.Base(romPath)
	romNameWithoutExt := romName[:len(romName)-len(filepath.Ext(romName))]
	fileName := fmt.Sprintf("%s_slot_%d.save", romNameWithoutExt, slot)
	return filepath.Join(sm.saveDirectory, fileName)
}

// GetSlotInfo returns information about all save slots
func (sm *StateManager) GetSlotInfo(romPath string) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)

	for i := 0; i < sm.maxSlots; i++ {
		slotInfo := StateSlotInfo{
			SlotNumber: i,
			Used:       false,
		}

		filePath := sm.getSlotFilePath(i, romPath)
		if stat, err := os.Stat(filePath); err == nil {
			slotInfo.Used = true
			slotInfo.FilePath = filePath
			slotInfo.FileSize = stat.Size()
			slotInfo.Timestamp = stat.ModTime()

			if file, err := sm.loadFromFile(filePath); err == nil {
				slotInfo.ROMPath = file.ROMPath
				slotInfo.Description = file.Description
				slotInfo.Timestamp = file.Timestamp
			}
		}

		slots[i] = slotInfo
	}

	return slots
}

// DeleteState deletes a save state from a slot
func (sm *StateManager) DeleteState(slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d", slot)
	}

	filePath := sm.getSlotFilePath(slot, romPath)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("save state not found in slot %d", slot)
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete save state: %v", err)
	}

	return nil
}

// HasSaveState checks if a save state exists in a slot
func (sm *StateManager) HasSaveState(slot int, romPath string) bool {
	if slot < 0 || slot >= sm.maxSlots {
		return false
	}

	filePath := sm.getSlotFilePath(slot, romPath)
	_, err := os.Stat(filePath)
	return err == nil
}

// GetMaxSlots returns the maximum number of save slots
func (sm *StateManager) GetMaxSlots() int {
	return sm.maxSlots
}

// SetMaxSlots sets the maximum number of save slots
func (sm *StateManager) SetMaxSlots(slots int) {
	if slots > 0 {
		sm.maxSlots = slots
	}
}

// GetSaveDirectory returns the save directory path
func (sm *StateManager) GetSaveDirectory() string {
	return sm.saveDirectory
}

// SetSaveDirectory sets the save directory path
func (sm *StateManager) SetSaveDirectory(directory string) error {
	sm.saveDirectory = directory
	return sm.initialize()
}

// ExportState exports a save state to a specific file
func (sm *StateManager) ExportState(sys *system.System, filePath string, romPath string) error {
	blob, err := sys.SaveState()
	if err != nil {
		return fmt.Errorf("failed to capture state: %v", err)
	}

	file := &saveFile{
		Timestamp:   time.Now(),
		ROMPath:     romPath,
		SlotNumber:  -1, // Export doesn't use slots
		Description: fmt.Sprintf("Export %s", time.Now().Format("2006-01-02 15:04:05")),
		Blob:        blob,
	}

	return sm.saveToFile(file, filePath)
}

// ImportState imports a save state from a specific file
func (sm *StateManager) ImportState(sys *system.System, filePath string, romPath string) error {
	file, err := sm.loadFromFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to import state: %v", err)
	}
	if file.ROMPath != romPath {
		return fmt.Errorf("invalid imported state: save state is for a different ROM")
	}

	return sys.LoadState(file.Blob)
}

// Cleanup cleans up state manager resources
func (sm *StateManager) Cleanup() error {
	sm.initialized = false
	return nil
}

// GetStateManagerStats returns statistics about the state manager
func (sm *StateManager) GetStateManagerStats(romPath string) StateManagerStats {
	slots := sm.GetSlotInfo(romPath)

	var usedSlots int
	var totalSize int64
	for _, slot := range slots {
		if slot.Used {
			usedSlots++
			totalSize += slot.FileSize
		}
	}

	return StateManagerStats{
		MaxSlots:      sm.maxSlots,
		UsedSlots:     usedSlots,
		FreeSlots:     sm.maxSlots - usedSlots,
		TotalSize:     totalSize,
		SaveDirectory: sm.saveDirectory,
		Initialized:   sm.initialized,
	}
}

// StateManagerStats contains state manager statistics
type StateManagerStats struct {
	MaxSlots      int    `json:"max_slots"`
	UsedSlots     int    `json:"used_slots"`
	FreeSlots     int    `json:"free_slots"`
	TotalSize     int64  `json:"total_size"`
	SaveDirectory string `json:"save_directory"`
	Initialized   bool   `json:"initialized"`
}
