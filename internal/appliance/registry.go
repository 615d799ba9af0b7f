package appliance

import "github.com/google/uuid"

// Registry is the state shared by every descriptor of one lint run:
// identifiers claimed so far and the number of warnings emitted. It is not
// safe for concurrent use.
type Registry struct {
	ids      map[string]string
	md5sums  map[string]struct{}
	images   map[string]string
	warnings int
}

func NewRegistry() *Registry {
	return &Registry{
		ids:     map[string]string{},
		md5sums: map[string]struct{}{},
		images:  map[string]string{},
	}
}

func (r *Registry) Warnings() int { return r.warnings }

// claimID records id for file and returns the file that claimed it first,
// if any. UUIDs compare in canonical form.
func (r *Registry) claimID(id, file string) (string, bool) {
	key := canonicalID(id)
	if prev, ok := r.ids[key]; ok {
		return prev, true
	}
	r.ids[key] = file
	return "", false
}

func (r *Registry) hasImage(filename string) bool {
	_, ok := r.images[filename]
	return ok
}

func (r *Registry) hasMD5(sum string) bool {
	_, ok := r.md5sums[sum]
	return ok
}

func (r *Registry) addImage(filename, version, md5sum string) {
	r.images[filename] = version
	r.md5sums[md5sum] = struct{}{}
}

func canonicalID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}
