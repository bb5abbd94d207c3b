package dictionary

// Snapshot is an immutable view of the dictionary at a point in time.
// Safe for unlimited concurrent readers.
type Snapshot struct {
	version int64
	clips   map[AvatarModel]map[string]SignClip
}

// NewSnapshot builds a snapshot from explicit clips; used by tests and the
// resolver benchmarks.
func NewSnapshot(clips ...SignClip) *Snapshot {
	snapshot := &Snapshot{clips: make(map[AvatarModel]map[string]SignClip)}
	for i, clip := range clips {
		byToken := snapshot.clips[clip.AvatarModel]
		if byToken == nil {
			byToken = make(map[string]SignClip)
			snapshot.clips[clip.AvatarModel] = byToken
		}
		if _, exists := byToken[clip.Token]; !exists {
			byToken[clip.Token] = clip
		}
		snapshot.version = int64(i + 1)
	}
	return snapshot
}

// Version identifies the snapshot; it increases with every published clip.
func (s *Snapshot) Version() int64 {
	if s == nil {
		return 0
	}
	return s.version
}

// Lookup returns the clip for a normalized token under the given avatar model.
func (s *Snapshot) Lookup(model AvatarModel, token string) (SignClip, bool) {
	if s == nil {
		return SignClip{}, false
	}
	byToken, ok := s.clips[model]
	if !ok {
		return SignClip{}, false
	}
	clip, ok := byToken[token]
	return clip, ok
}

// TokenCount returns the number of tokens resolvable for an avatar model.
func (s *Snapshot) TokenCount(model AvatarModel) int {
	if s == nil {
		return 0
	}
	return len(s.clips[model])
}
