package institution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/training-report/institution"
)

// =============================================================================
// GROUPING
// =============================================================================

func TestGrouper_Canonicalize_DefaultTable(t *testing.T) {
	g := institution.NewGrouper(institution.DefaultTable())

	tests := []struct {
		name string
		want string
	}{
		{"(주)멀티캠퍼스", "멀티캠퍼스"},
		{"멀티캠퍼스 역삼", "멀티캠퍼스"},
		{"multicampus", "멀티캠퍼스"},
		{"멀티 캠퍼스", "멀티캠퍼스"},
		{"엘리스 (주)", "엘리스"},
		{"프로그래머스", "그렙"},
		{"kt", "KT"},
		{"데이원컴퍼니 패스트캠퍼스", "패스트캠퍼스"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Canonicalize(tt.name))
		})
	}
}

func TestGrouper_Canonicalize_FirstGroupWins(t *testing.T) {
	// GIVEN: A name containing keywords of two groups
	// WHEN: Canonicalizing
	// THEN: The group declared first in the table is chosen

	table := institution.NewTable([]institution.Group{
		{Name: "알파", Keywords: []string{"alpha"}},
		{Name: "베타", Keywords: []string{"beta"}},
	})
	g := institution.NewGrouper(table)

	assert.Equal(t, "알파", g.Canonicalize("Beta Alpha Academy"))

	reversed := institution.NewGrouper(institution.NewTable([]institution.Group{
		{Name: "베타", Keywords: []string{"beta"}},
		{Name: "알파", Keywords: []string{"alpha"}},
	}))
	assert.Equal(t, "베타", reversed.Canonicalize("Beta Alpha Academy"))
}

func TestGrouper_Match_Unmatched(t *testing.T) {
	g := institution.NewGrouper(institution.DefaultTable())

	name, ok := g.Match("  새로운   교육원!! ")
	assert.False(t, ok)
	assert.Equal(t, "새로운 교육원", name)

	name, ok = g.Match("★★")
	assert.False(t, ok)
	assert.Equal(t, institution.UnknownInstitution, name)

	assert.Equal(t, institution.UnknownInstitution, g.Canonicalize(""))
}

func TestClean(t *testing.T) {
	assert.Equal(t, "(주)그린컴퓨터 아카데미", institution.Clean(" (주)그린컴퓨터\t아카데미. "))
	assert.Equal(t, "ABC123", institution.Clean("ABC-#123"))
}

func TestNewTable_NormalizesKeywords(t *testing.T) {
	table := institution.NewTable([]institution.Group{
		{Name: " 구름 ", Keywords: []string{" goorm ", "", "구름"}},
	})

	groups := table.Groups()
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "구름", groups[0].Name)
	assert.Equal(t, []string{"GOORM", "구름"}, groups[0].Keywords)

	// Groups returns a copy.
	groups[0].Keywords[0] = "CHANGED"
	assert.Equal(t, "GOORM", table.Groups()[0].Keywords[0])
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestIsPartneredCourse(t *testing.T) {
	assert.True(t, institution.IsPartneredCourse("Y"))
	assert.True(t, institution.IsPartneredCourse("KT"))
	assert.False(t, institution.IsPartneredCourse(""))
	assert.False(t, institution.IsPartneredCourse(" 0 "))
}

func TestTrainingTypeTags_FixedOrder(t *testing.T) {
	// GIVEN: A partnered incumbent-worker advanced convergence course at a university
	// WHEN: Classifying
	// THEN: Tags follow the fixed display order regardless of name order

	tags := institution.TrainingTypeTags("융합 심화 재직자 과정", "한국대학교", "Y")

	assert.Equal(t, []string{
		institution.TagPartnered,
		institution.TagIncumbentWorker,
		institution.TagAdvanced,
		institution.TagConvergence,
		institution.TagUniversityLed,
	}, tags)
}

func TestTrainingTypeTags_DefaultsToNewTechnology(t *testing.T) {
	assert.Equal(t, []string{institution.TagNewTechnology},
		institution.TrainingTypeTags("클라우드 엔지니어", "멀티캠퍼스", "0"))
}

func TestClassifyTrainingType_JoinsWithAmpersand(t *testing.T) {
	got := institution.ClassifyTrainingType("재직자 데이터 분석 심화", "멀티캠퍼스", "")
	assert.Equal(t, "재직자 훈련&심화 훈련", got)
}
