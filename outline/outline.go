// Package outline models a game scene as a tree of display objects and
// serves it to an arbor viewer.
//
// Scene files are JSON. Every object carries a "-type" discriminator naming
// its variant; Decode turns it into one of the concrete types below, so
// renderers switch on the Go type instead of looking up properties by name.
package outline

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// ErrUnknownType is returned when an object's "-type" names no variant.
var ErrUnknownType = errors.New("outline: unknown object type")

// Object is one node of the display list. The set of implementations is
// closed: Image, Sprite, TileSprite, BitmapText, Text and Container.
type Object interface {
	Info() *Common
	isObject()
}

// Common holds the fields every variant has.
type Common struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Info implements Object.
func (c *Common) Info() *Common { return c }

func (*Common) isObject() {}

// TextureRef names a texture and, for atlases, a frame inside it.
type TextureRef struct {
	Key   string `json:"key"`
	Frame string `json:"frame,omitempty"`
}

// Image is a static textured quad.
type Image struct {
	Common
	Texture TextureRef `json:"texture"`
}

// Sprite is a textured quad that may play an animation.
type Sprite struct {
	Common
	Texture      TextureRef `json:"texture"`
	AnimationKey string     `json:"animationKey,omitempty"`
}

// TileSprite repeats a texture over Width x Height.
type TileSprite struct {
	Common
	Texture TextureRef `json:"texture"`
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
}

// BitmapText draws Text with a bitmap font.
type BitmapText struct {
	Common
	Font     string  `json:"font"`
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize"`
}

// Text draws Text with a system font.
type Text struct {
	Common
	Text       string `json:"text"`
	FontFamily string `json:"fontFamily,omitempty"`
	FontSize   string `json:"fontSize,omitempty"`
	Color      string `json:"color,omitempty"`
}

// Container groups child objects.
type Container struct {
	Common
	List []Object `json:"-"`
}

// UnmarshalJSON decodes the container and its children.
func (c *Container) UnmarshalJSON(data []byte) error {
	var aux struct {
		Common
		List []json.RawMessage `json:"list"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	list, err := decodeList(aux.List)
	if err != nil {
		return fmt.Errorf("container %q: %w", aux.ID, err)
	}
	c.Common = aux.Common
	c.List = list
	return nil
}

// Scene is a decoded scene file.
type Scene struct {
	ID      string
	Objects []Object
}

// UnmarshalJSON decodes a scene file's display list.
func (s *Scene) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID          string            `json:"id"`
		DisplayList []json.RawMessage `json:"displayList"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	objs, err := decodeList(aux.DisplayList)
	if err != nil {
		return err
	}
	s.ID = aux.ID
	s.Objects = objs
	return nil
}

// Decode parses a scene file.
func Decode(data []byte) (*Scene, error) {
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}
	return &s, nil
}

// LoadFile reads and parses the scene file at path.
func LoadFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}
	return Decode(data)
}

func decodeList(raws []json.RawMessage) ([]Object, error) {
	out := make([]Object, 0, len(raws))
	for _, raw := range raws {
		o, err := decodeObject(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// decodeObject reads the "-type" tag and decodes raw into that variant.
func decodeObject(raw json.RawMessage) (Object, error) {
	var probe struct {
		Type string `json:"-type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	var o Object
	switch probe.Type {
	case "Image":
		o = &Image{}
	case "Sprite":
		o = &Sprite{}
	case "TileSprite":
		o = &TileSprite{}
	case "BitmapText":
		o = &BitmapText{}
	case "Text":
		o = &Text{}
	case "Container":
		o = &Container{}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, probe.Type)
	}
	if err := json.Unmarshal(raw, o); err != nil {
		return nil, fmt.Errorf("%s: %w", probe.Type, err)
	}
	return o, nil
}

// TypeName returns the "-type" tag of o.
func TypeName(o Object) string {
	switch o.(type) {
	case *Image:
		return "Image"
	case *Sprite:
		return "Sprite"
	case *TileSprite:
		return "TileSprite"
	case *BitmapText:
		return "BitmapText"
	case *Text:
		return "Text"
	case *Container:
		return "Container"
	}
	return ""
}

// Texture returns the texture an object draws, if it has one.
func Texture(o Object) (TextureRef, bool) {
	switch o := o.(type) {
	case *Image:
		return o.Texture, true
	case *Sprite:
		return o.Texture, true
	case *TileSprite:
		return o.Texture, true
	}
	return TextureRef{}, false
}

// Walk calls fn for every object in depth-first display order. Returning
// false from fn skips the object's children.
func Walk(objs []Object, fn func(o Object, depth int) bool) {
	walk(objs, 0, fn)
}

func walk(objs []Object, depth int, fn func(Object, int) bool) {
	for _, o := range objs {
		if !fn(o, depth) {
			continue
		}
		if c, ok := o.(*Container); ok {
			walk(c.List, depth+1, fn)
		}
	}
}

// Find returns the object with the given id.
func (s *Scene) Find(id string) (Object, bool) {
	var found Object
	Walk(s.Objects, func(o Object, _ int) bool {
		if found == nil && o.Info().ID == id {
			found = o
		}
		return found == nil
	})
	return found, found != nil
}
