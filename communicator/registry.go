package communicator

import "github.com/teranos/clangcomplete/ipc"

// ordered is a map that remembers insertion order. Replacing a key keeps its
// position.
type ordered[V any] struct {
	keys   []string
	values map[string]V
}

func newOrdered[V any]() *ordered[V] {
	return &ordered[V]{values: map[string]V{}}
}

func (o *ordered[V]) set(key string, v V) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *ordered[V]) get(key string) (V, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *ordered[V]) has(key string) bool {
	_, ok := o.values[key]
	return ok
}

func (o *ordered[V]) delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

func (o *ordered[V]) len() int {
	return len(o.keys)
}

func (o *ordered[V]) list() []V {
	out := make([]V, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.values[k])
	}
	return out
}

// registry is the authoritative registration state replayed after a restart.
// The project-less part "" always exists and always comes first.
type registry struct {
	parts *ordered[ipc.ProjectPartContainer]
	units *ordered[ipc.FileContainer]
}

func newRegistry() *registry {
	r := &registry{
		parts: newOrdered[ipc.ProjectPartContainer](),
		units: newOrdered[ipc.FileContainer](),
	}
	r.parts.set("", ipc.ProjectPartContainer{})
	return r
}

func (r *registry) registerParts(parts []ipc.ProjectPartContainer) {
	for _, p := range parts {
		r.parts.set(p.ProjectPartID, p)
	}
}

// unregisterParts removes the known, non-empty ids and moves their translation
// units to the project-less part. It returns the removed ids and the moved units.
func (r *registry) unregisterParts(ids []string) (removed []string, moved []ipc.FileContainer) {
	gone := map[string]bool{}
	for _, id := range ids {
		if id == "" || gone[id] {
			continue
		}
		if r.parts.delete(id) {
			gone[id] = true
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	for _, fc := range r.units.list() {
		if gone[fc.ProjectPartID] {
			fc.ProjectPartID = ""
			r.units.set(fc.FilePath, fc)
			moved = append(moved, fc)
		}
	}
	return removed, moved
}

func (r *registry) registerUnits(units []ipc.FileContainer) {
	for _, fc := range units {
		r.units.set(fc.FilePath, fc)
	}
}

// unregisterUnits removes the known paths and returns them.
func (r *registry) unregisterUnits(paths []string) []string {
	var removed []string
	for _, p := range paths {
		if r.units.delete(p) {
			removed = append(removed, p)
		}
	}
	return removed
}

// replay returns one command per registered item, every project part before
// any translation unit.
func (r *registry) replay() []ipc.Message {
	msgs := make([]ipc.Message, 0, r.parts.len()+r.units.len())
	for _, p := range r.parts.list() {
		msgs = append(msgs, ipc.RegisterProjectPartsForCodeCompletionCommand{
			ProjectContainers: []ipc.ProjectPartContainer{p},
		})
	}
	for _, fc := range r.units.list() {
		msgs = append(msgs, ipc.RegisterTranslationUnitForCodeCompletionCommand{
			FileContainers: []ipc.FileContainer{fc},
		})
	}
	return msgs
}
