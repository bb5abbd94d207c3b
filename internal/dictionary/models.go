package dictionary

import "strings"

// AvatarModel selects which clip library a token resolves against.
type AvatarModel string

const (
	AvatarMale   AvatarModel = "male"
	AvatarFemale AvatarModel = "female"
)

var allAvatarModels = []AvatarModel{AvatarMale, AvatarFemale}

// AvatarModels returns the ordered list of supported avatar models.
func AvatarModels() []AvatarModel {
	cp := make([]AvatarModel, len(allAvatarModels))
	copy(cp, allAvatarModels)
	return cp
}

// ParseAvatarModel converts a string into a known AvatarModel.
func ParseAvatarModel(value string) (AvatarModel, bool) {
	normalized := AvatarModel(strings.ToLower(strings.TrimSpace(value)))
	for _, model := range allAvatarModels {
		if model == normalized {
			return model, true
		}
	}
	return "", false
}

// SignClip identifies one playable unit in the clip library. Immutable once
// published; multiple tokens may alias the same clip path (synonyms).
type SignClip struct {
	AvatarModel     AvatarModel
	Token           string
	ClipPath        string
	DurationSeconds float64
	Checksum        string
}

// Statistics aggregates clip counts for diagnostics.
type Statistics struct {
	TotalClips             int
	ClipsPerModel          map[AvatarModel]int
	AverageDurationSeconds float64
}
