package domain

import (
	"encoding/json"
	"fmt"
)

// UpdateType discriminates canvas mutations on the wire.
type UpdateType string

const (
	UpdateDraw           UpdateType = "draw"
	UpdateErase          UpdateType = "erase"
	UpdateClear          UpdateType = "clear"
	UpdateObjectAdded    UpdateType = "object_added"
	UpdateObjectModified UpdateType = "object_modified"
	UpdateObjectRemoved  UpdateType = "object_removed"
)

// UpdateData is the payload variant selected by CanvasUpdate.Type.
type UpdateData interface{ isUpdateData() }

// ObjectData carries a full object state (object_added, object_modified).
type ObjectData struct {
	Object SceneObject `json:"object"`
}

// RemoveData references an object by id (object_removed).
type RemoveData struct {
	ObjectID string `json:"object_id"`
}

// EraseData removes a set of stroke objects by id.
type EraseData struct {
	ObjectIDs []string `json:"object_ids"`
}

// ClearData wipes the canvas and resets the background.
type ClearData struct {
	Background string `json:"background,omitempty"`
}

// PathData carries a freehand path (draw).
type PathData struct {
	Path SceneObject `json:"path"`
}

func (ObjectData) isUpdateData() {}
func (RemoveData) isUpdateData() {}
func (EraseData) isUpdateData()  {}
func (ClearData) isUpdateData()  {}
func (PathData) isUpdateData()   {}

// CanvasUpdate is a single mutation to the shared drawing surface.
// Timestamp is ISO-8601; UserID identifies the origin peer when stamped
// by the server on fan-out.
type CanvasUpdate struct {
	Type      UpdateType `json:"type"`
	Data      UpdateData `json:"data"`
	Timestamp string     `json:"timestamp"`
	UserID    string     `json:"user_id,omitempty"`
}

type canvasUpdateWire struct {
	Type      UpdateType      `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
	UserID    string          `json:"user_id,omitempty"`
}

func (u CanvasUpdate) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(u.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(canvasUpdateWire{Type: u.Type, Data: data, Timestamp: u.Timestamp, UserID: u.UserID})
}

func (u *CanvasUpdate) UnmarshalJSON(b []byte) error {
	var w canvasUpdateWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	u.Type = w.Type
	u.Timestamp = w.Timestamp
	u.UserID = w.UserID
	if len(w.Data) == 0 {
		w.Data = []byte("{}")
	}
	switch w.Type {
	case UpdateObjectAdded, UpdateObjectModified:
		var d ObjectData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return err
		}
		u.Data = d
	case UpdateObjectRemoved:
		var d RemoveData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return err
		}
		u.Data = d
	case UpdateErase:
		var d EraseData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return err
		}
		u.Data = d
	case UpdateClear:
		var d ClearData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return err
		}
		u.Data = d
	case UpdateDraw:
		var d PathData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return err
		}
		u.Data = d
	default:
		return fmt.Errorf("unknown canvas update type %q", w.Type)
	}
	return nil
}
