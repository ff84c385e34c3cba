package nodequery

// TypeSettings are the per-type switches a caller can set. Both of them stop
// the engine from expanding the type's own fields.
type TypeSettings struct {
	// Exclude drops every field of this type and skips its root field.
	Exclude bool `json:"exclude" yaml:"exclude"`
	// NodeInterface marks a bare interface that is only ever referenced.
	NodeInterface bool `json:"nodeInterface" yaml:"nodeInterface"`
}

// Suppressed reports whether fields of the type must not be expanded.
func (s TypeSettings) Suppressed() bool {
	return s.Exclude || s.NodeInterface
}

// SettingsResolver returns the settings for a type name.
type SettingsResolver func(typeName string) TypeSettings

// SettingsMap is a SettingsResolver backed by a map. Missing names resolve
// to the zero TypeSettings.
type SettingsMap map[string]TypeSettings

// Resolve implements SettingsResolver.
func (m SettingsMap) Resolve(typeName string) TypeSettings {
	return m[typeName]
}

// Classifier answers the two questions the transformers ask about every
// type they meet: is it an addressable node, and what are its settings.
type Classifier struct {
	nodeTypes map[string]struct{}
	settings  SettingsResolver
}

// NewClassifier creates a Classifier. A nil resolver resolves every type to
// the zero TypeSettings.
func NewClassifier(nodeTypeNames []string, settings SettingsResolver) *Classifier {
	c := &Classifier{
		nodeTypes: make(map[string]struct{}, len(nodeTypeNames)),
		settings:  settings,
	}
	for _, name := range nodeTypeNames {
		c.nodeTypes[name] = struct{}{}
	}
	return c
}

// IsNode reports whether typeName is a registered node type.
func (c *Classifier) IsNode(typeName string) bool {
	_, ok := c.nodeTypes[typeName]
	return ok
}

// Settings returns the settings of typeName.
func (c *Classifier) Settings(typeName string) TypeSettings {
	if c.settings == nil {
		return TypeSettings{}
	}
	return c.settings(typeName)
}
