// Package catalog reads and writes the copilot lists handed to the selector.
//
// Items are decoded once at the boundary into typed fields used for search
// and display, while the original JSON bytes of every record are retained so
// the selection can be written back without altering its structure.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrNotArray is returned when the payload is not a JSON array.
	ErrNotArray = errors.New("expected a JSON array of copilots")
	// ErrEmpty is returned when the payload is an empty array.
	ErrEmpty = errors.New("no copilots found")
	// ErrInvalidItem is returned when an array element is not a JSON object.
	ErrInvalidItem = errors.New("copilot entry is not a JSON object")
)

// unknownName is shown (and used for duplicate grouping) when an item has no name.
const unknownName = "Unknown"

// Skill is a named capability attached to a copilot.
type Skill struct {
	Name string `json:"name"`
}

// Item is a single selectable copilot record. It is read-only once loaded.
type Item struct {
	Name        string
	Description string
	ID          string
	Skills      []Skill

	raw json.RawMessage
}

// itemFields mirrors the searchable subset of a copilot record.
type itemFields struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CopilotID   string  `json:"copilot_id"`
	ID          string  `json:"id"`
	Skills      []Skill `json:"skills"`
}

// NewItem decodes a single JSON object into an Item.
func NewItem(raw json.RawMessage) (Item, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Item{}, ErrInvalidItem
	}

	var f itemFields
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}

	id := f.CopilotID
	if id == "" {
		id = f.ID
	}

	// keep a private copy so callers cannot mutate the stored record
	owned := make(json.RawMessage, len(trimmed))
	copy(owned, trimmed)

	return Item{
		Name:        f.Name,
		Description: f.Description,
		ID:          id,
		Skills:      f.Skills,
		raw:         owned,
	}, nil
}

// Raw returns the original JSON bytes of the item.
func (it Item) Raw() json.RawMessage {
	return it.raw
}

// DisplayName returns the item name, or a placeholder when it has none.
func (it Item) DisplayName() string {
	if it.Name == "" {
		return unknownName
	}
	return it.Name
}

// SearchText returns the lowercase concatenation of the non-empty searchable
// fields: name, description, id and skill names.
func (it Item) SearchText() string {
	fields := make([]string, 0, 3+len(it.Skills))
	for _, f := range []string{it.Name, it.Description, it.ID} {
		if f != "" {
			fields = append(fields, strings.ToLower(f))
		}
	}
	for _, s := range it.Skills {
		if s.Name != "" {
			fields = append(fields, strings.ToLower(s.Name))
		}
	}
	return strings.Join(fields, " ")
}

// ShortID returns the part of the id before the first dash, or its first
// eight characters when it has no dash.
func (it Item) ShortID() string {
	if it.ID == "" {
		return "Unknown ID"
	}
	if i := strings.Index(it.ID, "-"); i >= 0 {
		return it.ID[:i]
	}
	r := []rune(it.ID)
	if len(r) > 8 {
		return string(r[:8])
	}
	return it.ID
}

// Load decodes a JSON array of copilot records.
func Load(r io.Reader) ([]Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotArray
		}
		return nil, fmt.Errorf("%w: invalid JSON input: %v", ErrNotArray, err)
	}
	// a literal null decodes into a nil slice without error
	if raws == nil {
		return nil, ErrNotArray
	}
	if len(raws) == 0 {
		return nil, ErrEmpty
	}

	items := make([]Item, 0, len(raws))
	for i, raw := range raws {
		item, err := NewItem(raw)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// LoadFile reads copilots from a JSON file.
func LoadFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not read JSON file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Encode writes items as a JSON array using each item's original bytes.
func Encode(w io.Writer, items []Item) error {
	raws := make([]json.RawMessage, len(items))
	for i, it := range items {
		raws[i] = it.raw
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raws); err != nil {
		return fmt.Errorf("failed to write selection: %w", err)
	}
	return nil
}
