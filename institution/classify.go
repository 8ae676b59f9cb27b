package institution

import "strings"

// Training-type tags, in display order.
const (
	TagPartnered       = "선도기업형 훈련"
	TagIncumbentWorker = "재직자 훈련"
	TagAdvanced        = "심화 훈련"
	TagConvergence     = "융합 훈련"
	TagUniversityLed   = "대학주도형 훈련"
	TagNewTechnology   = "신기술 훈련"
)

// TagSeparator joins tags into the single display string.
const TagSeparator = "&"

const (
	incumbentInfix   = "재직자"
	advancedInfix    = "심화"
	convergenceInfix = "융합"
	universityMarker = "학교"
)

// IsPartneredCourse reports whether a lead-company field marks the run as
// jointly delivered: non-blank and not the literal "0".
func IsPartneredCourse(partnerField string) bool {
	s := strings.TrimSpace(partnerField)
	return s != "" && s != "0"
}

// TrainingTypeTags returns the applicable tags in their fixed order, or the
// new-technology tag when none apply.
func TrainingTypeTags(courseName, institutionName, partnerField string) []string {
	var tags []string
	if IsPartneredCourse(partnerField) {
		tags = append(tags, TagPartnered)
	}
	if strings.Contains(courseName, incumbentInfix) {
		tags = append(tags, TagIncumbentWorker)
	}
	if strings.Contains(courseName, advancedInfix) {
		tags = append(tags, TagAdvanced)
	}
	if strings.Contains(courseName, convergenceInfix) {
		tags = append(tags, TagConvergence)
	}
	if strings.Contains(institutionName, universityMarker) {
		tags = append(tags, TagUniversityLed)
	}
	if len(tags) == 0 {
		return []string{TagNewTechnology}
	}
	return tags
}

// ClassifyTrainingType joins TrainingTypeTags with "&".
func ClassifyTrainingType(courseName, institutionName, partnerField string) string {
	return strings.Join(TrainingTypeTags(courseName, institutionName, partnerField), TagSeparator)
}
