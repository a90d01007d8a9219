package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그와 메트릭 라벨에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S1 → S2 → S3 → S4 → S5
//   Source  Score  Rank  Render  Deliver

// Stage represents a pipeline stage
type Stage string

const (
	// StageSource S1: 후보 종목 수집
	// 위치: internal/s1_universe/
	StageSource Stage = "S1_SOURCE"

	// StageScore S2: 기술적 점수 + 텍스트 시그널
	// 위치: internal/s2_signals/
	StageScore Stage = "S2_SCORE"

	// StageRank S3: 정렬 및 Top K 선별
	// 위치: internal/selection/
	StageRank Stage = "S3_RANK"

	// StageRender S4: 리포트 텍스트 + 차트
	// 위치: internal/report/
	StageRender Stage = "S4_RENDER"

	// StageDeliver S5: 텔레그램 전송
	// 위치: internal/external/telegram/
	StageDeliver Stage = "S5_DELIVER"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageSource:
		return "S1"
	case StageScore:
		return "S2"
	case StageRank:
		return "S3"
	case StageRender:
		return "S4"
	case StageDeliver:
		return "S5"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageSource:
		return "후보 종목 수집"
	case StageScore:
		return "기술/텍스트 점수"
	case StageRank:
		return "순위/Top K"
	case StageRender:
		return "리포트/차트 생성"
	case StageDeliver:
		return "전송"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageSource,
		StageScore,
		StageRank,
		StageRender,
		StageDeliver,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage  `json:"stage"`
	Success     bool   `json:"success"`
	InputCount  int    `json:"input_count"`
	OutputCount int    `json:"output_count"`
	Duration    int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}
