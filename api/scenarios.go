/*
scenarios.go - Demo datasets for testing and demonstrations

PURPOSE:

	Provides pre-built feeds that populate the store with realistic rows
	exercising specific report rules. Each scenario is a list of raw rows
	in the upstream column format, run through the same transform as an
	uploaded file.

AVAILABLE SCENARIOS:

	single-institution: One institution, runs across two years
	partnered-course:   Lead-company run split 10/90 between two groups
	multi-year:         A run spanning a year boundary, prorated by month
	messy-feed:         Thousands separators, "x(y)" counts, a bad date

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "partnered-course"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: store() shared with file imports
  - pipeline/transform.go: Row processing
*/
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/ingest"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	rows func() []course.RawRecord
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "single-institution",
			Name:        "Single Institution",
			Description: "Three runs at one academy across 2023 and 2024",
		},
		rows: singleInstitutionRows,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "partnered-course",
			Name:        "Partnered Course",
			Description: "Lead-company run: partner keeps 90% of revenue and all students",
		},
		rows: partneredCourseRows,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "multi-year",
			Name:        "Multi-Year Run",
			Description: "A run from November 2023 to March 2024 with revenue in both years",
		},
		rows: multiYearRows,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "messy-feed",
			Name:        "Messy Feed",
			Description: "Formatted numbers, carried-over counts and an unparsable date",
		},
		rows: messyFeedRows,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if s, ok := findScenario(current); ok {
		writeJSON(w, http.StatusOK, s.ScenarioDTO)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces all data with a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}

	resp, err := h.store(ctx, "scenario:"+s.ID, ingest.Feed{Records: s.rows()})
	if err != nil {
		h.fail(w, r, fmt.Sprintf("Failed to load scenario %s", s.ID), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = s.ID
	h.mu.Unlock()
	h.Logger.InfoContext(ctx, "scenario loaded", slog.String("scenario", s.ID))

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": s.ID,
		"import":   resp,
	})
}

// =============================================================================
// SCENARIO ROWS
// =============================================================================

func singleInstitutionRows() []course.RawRecord {
	return []course.RawRecord{
		{
			UniqueID: "MC-2023-01", CourseName: "클라우드 엔지니어 양성과정", CourseID: "AIG2023-100",
			RunLabel: "1", Institution: "(주)멀티캠퍼스",
			StartDate: "2023-03-02", EndDate: "2023-08-25",
			Enrollment: "30", Completed: "27", Satisfaction: "91.5",
			Employed: "15", Employed3Mo: "18", Employed6Mo: "21", Capacity: "30",
			Revenue2023: "480,000,000",
		},
		{
			UniqueID: "MC-2023-02", CourseName: "클라우드 엔지니어 양성과정", CourseID: "AIG2023-100",
			RunLabel: "2", Institution: "멀티캠퍼스 역삼",
			StartDate: "2023-09-04", EndDate: "2024-02-23",
			Enrollment: "28", Completed: "20", Satisfaction: "88.0",
			Employed3Mo: "12", Capacity: "30",
			Revenue2023: "150,000,000", Revenue2024: "250,000,000",
		},
		{
			UniqueID: "MC-2024-01", CourseName: "재직자 데이터 분석 심화", CourseID: "AIG2024-210",
			RunLabel: "1", Institution: "MULTICAMPUS",
			StartDate: "2024/04/01", EndDate: "2024/06/28",
			Enrollment: "25", Completed: "24", Satisfaction: "94.2",
			Employed: "20", Capacity: "25",
			Revenue2024: "120000000",
		},
	}
}

func partneredCourseRows() []course.RawRecord {
	return []course.RawRecord{
		{
			UniqueID: "LC-2024-01", CourseName: "AI 서비스 개발자 과정", CourseID: "LC2024-001",
			RunLabel: "1", Institution: "그렙", Partner: "KT", LeadCompany: "Y",
			StartDate: "2024-02-05", EndDate: "2024-07-26",
			Enrollment: "50", Completed: "50", Satisfaction: "92",
			Employed6Mo: "41", Capacity: "50",
			Revenue2024: "1,000,000",
		},
		{
			UniqueID: "LC-2024-02", CourseName: "AI 서비스 개발자 과정", CourseID: "LC2024-001",
			RunLabel: "2", Institution: "프로그래머스", Partner: "그렙", LeadCompany: "Y",
			StartDate: "2024-08-05", EndDate: "2024-12-20",
			Enrollment: "40", Completed: "30", Satisfaction: "85",
			Employed3Mo: "18", Capacity: "45",
			Revenue2024: "800,000",
		},
	}
}

func multiYearRows() []course.RawRecord {
	return []course.RawRecord{
		{
			UniqueID: "MY-2023-01", CourseName: "풀스택 웹 개발", CourseID: "MY2023-050",
			RunLabel: "1", Institution: "패스트캠퍼스",
			StartDate: "2023.11.06", EndDate: "2024.03.29",
			Enrollment: "40", Completed: "30", Satisfaction: "89.5",
			Employed: "18", Capacity: "40",
			Revenue2023: "200,000,000", Revenue2024: "300,000,000",
		},
		{
			UniqueID: "MY-2024-01", CourseName: "융합 보안 엔지니어", CourseID: "MY2024-020",
			RunLabel: "1", Institution: "한국생산성본부",
			StartDate: "2024-01-08", EndDate: "2024-03-29",
			Enrollment: "20", Completed: "12", Satisfaction: "80",
			Capacity: "24",
			Revenue2024: "9,000,000",
		},
	}
}

func messyFeedRows() []course.RawRecord {
	return []course.RawRecord{
		{
			UniqueID: "MF-01", CourseName: "빅데이터 분석가 과정", CourseID: "MF-100",
			RunLabel: "3", Institution: "엘리스 (주)",
			StartDate: "2024-01-15", EndDate: "2024-06-14",
			Enrollment: "120(30)", Completed: "96(20)", CompletionRate: "80%",
			Satisfaction: "90.1", Employed6Mo: "60", Capacity: "150",
			Revenue2024: "1,234,567,890원",
		},
		{
			UniqueID: "MF-02", CourseName: "모바일 앱 개발", CourseID: "MF-200",
			RunLabel: "1", Institution: "코드스테이츠",
			StartDate: "미정", EndDate: "2024-09-30",
			Enrollment: "35", Completed: "-", Satisfaction: "N/A",
			Capacity: "40",
			Revenue2024: "87,500,000",
		},
	}
}
