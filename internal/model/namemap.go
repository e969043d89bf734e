package model

import "github.com/emirpasic/gods/maps/linkedhashmap"

// NameMap associates the name a tensor carries in configuration with the
// name the loaded model uses internally. Built once at load time, read-only
// afterwards.
type NameMap struct {
	forward *linkedhashmap.Map
	reverse map[string]string
}

func NewNameMap() *NameMap {
	return &NameMap{
		forward: linkedhashmap.New(),
		reverse: make(map[string]string),
	}
}

func (m *NameMap) Put(configName, inModelName string) {
	m.forward.Put(configName, inModelName)
	m.reverse[inModelName] = configName
}

// InModel maps a configuration name to the model's internal name. A name
// with no entry maps to itself.
func (m *NameMap) InModel(configName string) string {
	if v, ok := m.forward.Get(configName); ok {
		return v.(string)
	}
	return configName
}

// ConfigName maps a model-internal name back to the configuration name.
func (m *NameMap) ConfigName(inModelName string) string {
	if v, ok := m.reverse[inModelName]; ok {
		return v
	}
	return inModelName
}

func (m *NameMap) Size() int {
	return m.forward.Size()
}
