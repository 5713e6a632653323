package outline

import (
	"context"
	"fmt"
	"image"
	"path"

	"github.com/phanxgames/arbor"
)

// Content implements arbor.ContentProvider and arbor.LabelProvider. The
// input is a *Scene or a []Object; containers are the only nodes with
// children.
type Content struct{}

// Roots implements arbor.ContentProvider.
func (Content) Roots(input any) ([]any, error) {
	switch in := input.(type) {
	case *Scene:
		if in == nil {
			return nil, nil
		}
		return objects(in.Objects), nil
	case []Object:
		return objects(in), nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("outline: unsupported input %T", input)
}

// Children implements arbor.ContentProvider.
func (Content) Children(item any) ([]any, error) {
	if c, ok := item.(*Container); ok {
		return objects(c.List), nil
	}
	return nil, nil
}

// Label implements arbor.LabelProvider. Objects without a label show their
// text, or their type.
func (Content) Label(item any) string {
	o, ok := item.(Object)
	if !ok {
		return fmt.Sprint(item)
	}
	if l := o.Info().Label; l != "" {
		return l
	}
	switch o := o.(type) {
	case *Text:
		if o.Text != "" {
			return o.Text
		}
	case *BitmapText:
		if o.Text != "" {
			return o.Text
		}
	}
	return TypeName(o)
}

func objects(list []Object) []any {
	out := make([]any, len(list))
	for i, o := range list {
		out[i] = o
	}
	return out
}

// Key is an arbor.KeyFunc keying objects by id.
func Key(item any) string {
	if o, ok := item.(Object); ok {
		return o.Info().ID
	}
	return ""
}

// TextureKey returns the image cache key of the object's texture, or "".
func TextureKey(item any) string {
	o, ok := item.(Object)
	if !ok {
		return ""
	}
	tex, ok := Texture(o)
	if !ok {
		return ""
	}
	return tex.Key
}

// TextureLoader loads texture keys from dir, appending ".png" to keys
// without an extension.
func TextureLoader(dir string) arbor.ImageLoader {
	load := arbor.DirLoader(dir)
	return func(ctx context.Context, key string) (image.Image, error) {
		if path.Ext(key) == "" {
			key += ".png"
		}
		return load(ctx, key)
	}
}

// Cells picks a renderer per variant: textured objects get an icon with
// their texture, everything else a plain label. Preload
// fetches textures through Images.
type Cells struct {
	Images *arbor.ImageCache

	textured *arbor.IconLabelCellRenderer
	labelled *arbor.LabelCellRenderer
}

// NewCells returns a provider drawing textures from images. images may be
// nil, in which case textured rows show a placeholder box.
func NewCells(images *arbor.ImageCache) *Cells {
	return &Cells{
		Images:   images,
		textured: &arbor.IconLabelCellRenderer{Images: images, IconKey: TextureKey},
		labelled: &arbor.LabelCellRenderer{},
	}
}

// CellRenderer implements arbor.CellRendererProvider.
func (c *Cells) CellRenderer(item any) arbor.CellRenderer {
	switch item.(type) {
	case *Image, *Sprite, *TileSprite:
		return c.textured
	}
	return c.labelled
}

// Preload implements arbor.CellRendererProvider.
func (c *Cells) Preload(ctx context.Context, item any) arbor.LoadResult {
	key := TextureKey(item)
	if c.Images == nil || key == "" {
		return arbor.NothingLoaded
	}
	return c.Images.Preload(ctx, key)
}
