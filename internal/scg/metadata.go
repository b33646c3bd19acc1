package scg

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jchantrell/rsbconv/internal/utils"
)

// ErrInvalidGroup marks group metadata that does not have the expected shape.
var ErrInvalidGroup = errors.New("invalid group metadata")

// ResourceTypeFile is the only resource type an audio group carries.
const ResourceTypeFile = "File"

// GroupInfo is the data.json of a non-composite group such as the streaming
// audio packet. Fields are declared in key order so the encoded document is
// sorted.
type GroupInfo struct {
	Category              json.RawMessage     `json:"category"`
	Composite             bool                `json:"composite"`
	Subgroup              map[string]Subgroup `json:"subgroup"`
	TextureFormatCategory uint32              `json:"texture_format_category"`
	Version               uint32              `json:"version"`
}

// Subgroup is one named resource list of a group.
type Subgroup struct {
	Category *SubgroupCategory  `json:"category"`
	Resource map[string]Resource `json:"resource"`
}

// SubgroupCategory holds the per-subgroup flags. Only Compression survives a
// platform conversion.
type SubgroupCategory struct {
	CommonType  bool    `json:"common_type"`
	Compression uint32  `json:"compression"`
	Locale      *string `json:"locale"`
}

// Resource is a file inside the package's resource directory. Path may use
// either slash.
type Resource struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// SlashPath returns Path with backslashes turned into slashes.
func (r Resource) SlashPath() string {
	return strings.ReplaceAll(r.Path, "\\", "/")
}

// IsLocal reports whether Path stays inside the resource directory.
func (r Resource) IsLocal() bool {
	return filepath.IsLocal(filepath.FromSlash(r.SlashPath()))
}

// LoadGroupInfo reads and validates group metadata.
func LoadGroupInfo(path string) (*GroupInfo, error) {
	var info GroupInfo
	if err := utils.ReadJSON(path, &info); err != nil {
		return nil, err
	}
	if _, _, err := info.Single(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &info, nil
}

// Save writes the metadata to path.
func (g *GroupInfo) Save(path string) error {
	return utils.WriteJSON(path, g)
}

// Single returns the one subgroup of the group. Anything other than exactly
// one subgroup, or a subgroup that is not a plain file list, is rejected.
func (g *GroupInfo) Single() (string, Subgroup, error) {
	if len(g.Subgroup) != 1 {
		names := make([]string, 0, len(g.Subgroup))
		for name := range g.Subgroup {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", Subgroup{}, fmt.Errorf("%w: expected exactly one subgroup, found %d %v", ErrInvalidGroup, len(names), names)
	}

	var name string
	var sub Subgroup
	for k, v := range g.Subgroup {
		name, sub = k, v
	}

	if sub.Category == nil {
		return "", Subgroup{}, fmt.Errorf("%w: subgroup %s has no category", ErrInvalidGroup, name)
	}
	for id, res := range sub.Resource {
		if res.Type != ResourceTypeFile {
			return "", Subgroup{}, fmt.Errorf("%w: resource %s has type %q, expected %q", ErrInvalidGroup, id, res.Type, ResourceTypeFile)
		}
		if res.Path == "" {
			return "", Subgroup{}, fmt.Errorf("%w: resource %s has no path", ErrInvalidGroup, id)
		}
		if !res.IsLocal() {
			return "", Subgroup{}, fmt.Errorf("%w: resource %s path %q leaves the resource directory", ErrInvalidGroup, id, res.Path)
		}
	}
	return name, sub, nil
}

// ResourceIDs returns the subgroup's resource ids in sorted order.
func (s Subgroup) ResourceIDs() []string {
	ids := make([]string, 0, len(s.Resource))
	for id := range s.Resource {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CompositeInfo is the data.json of a composite group. Only the keys the
// converter touches are interpreted; everything else is carried through.
type CompositeInfo struct {
	fields map[string]json.RawMessage
}

// LoadCompositeInfo reads composite metadata from path.
func LoadCompositeInfo(path string) (*CompositeInfo, error) {
	info := &CompositeInfo{}
	if err := utils.ReadJSON(path, info); err != nil {
		return nil, err
	}
	return info, nil
}

// Save writes the metadata to path with sorted keys.
func (c *CompositeInfo) Save(path string) error {
	return utils.WriteJSON(path, c)
}

func (c *CompositeInfo) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("%w: metadata is not an object", ErrInvalidGroup)
	}
	c.fields = fields
	return nil
}

func (c *CompositeInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.fields)
}

// TextureFormatCategory returns the stored category, 0 when absent.
func (c *CompositeInfo) TextureFormatCategory() (uint32, error) {
	raw, ok := c.fields["texture_format_category"]
	if !ok {
		return 0, nil
	}
	var v uint32
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: texture_format_category: %v", ErrInvalidGroup, err)
	}
	return v, nil
}

func (c *CompositeInfo) SetTextureFormatCategory(v uint32) {
	c.set("texture_format_category", v)
}

// HasCategory reports whether the top level category is a non-null value.
func (c *CompositeInfo) HasCategory() bool {
	raw, ok := c.fields["category"]
	return ok && string(raw) != "null"
}

// CategoryFormat returns category.format, or false when there is none.
func (c *CompositeInfo) CategoryFormat() (uint32, bool, error) {
	if !c.HasCategory() {
		return 0, false, nil
	}
	category, err := c.category()
	if err != nil {
		return 0, false, err
	}
	raw, ok := category["format"]
	if !ok {
		return 0, false, nil
	}
	var v uint32
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false, fmt.Errorf("%w: category.format: %v", ErrInvalidGroup, err)
	}
	return v, true, nil
}

// ResetCategoryFormat forces category.format to 0 when a category is present.
func (c *CompositeInfo) ResetCategoryFormat() error {
	if !c.HasCategory() {
		return nil
	}
	category, err := c.category()
	if err != nil {
		return err
	}
	category["format"] = json.RawMessage("0")
	c.set("category", category)
	return nil
}

func (c *CompositeInfo) category() (map[string]json.RawMessage, error) {
	var category map[string]json.RawMessage
	if err := json.Unmarshal(c.fields["category"], &category); err != nil {
		return nil, fmt.Errorf("%w: category is not an object: %v", ErrInvalidGroup, err)
	}
	return category, nil
}

func (c *CompositeInfo) set(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		// only called with plain numbers and decoded objects
		panic(err)
	}
	if c.fields == nil {
		c.fields = make(map[string]json.RawMessage)
	}
	c.fields[key] = raw
}
