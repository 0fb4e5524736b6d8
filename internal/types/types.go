package types

// Platform is the publishing target the video is planned for.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
)

// AspectRatio returns the aspect ratio scenes should render at for this platform.
func (p Platform) AspectRatio() string {
	switch p {
	case PlatformTikTok, PlatformInstagram:
		return "9:16"
	default:
		return "16:9"
	}
}

// Rating is the qualitative strength of a scene as judged by the generative pass.
type Rating string

const (
	RatingStrong    Rating = "strong"
	RatingAdequate  Rating = "adequate"
	RatingNeedsWork Rating = "needs-work"
)

// Valid reports whether r is one of the known rating values.
func (r Rating) Valid() bool {
	switch r {
	case RatingStrong, RatingAdequate, RatingNeedsWork:
		return true
	}
	return false
}

// Fragment is one segment of a raw script, before any provider assignment.
type Fragment struct {
	Index              int    `json:"index"` // 1-based
	Text               string `json:"text"`
	WordCount          int    `json:"word_count"`
	HasDialogue        bool   `json:"has_dialogue"`
	HasVisualDirection bool   `json:"has_visual_direction"`
	Placeholder        bool   `json:"placeholder,omitempty"`
}

// Scene is one planned rendering unit of a script analysis.
type Scene struct {
	Position           int     `json:"position"` // 1-based, dense
	Excerpt            string  `json:"excerpt"`  // display only, bounded length
	Text               string  `json:"-"`        // full fragment text, used as the render prompt
	WordCount          int     `json:"word_count"`
	DurationSec        int     `json:"duration_sec"`
	HasDialogue        bool    `json:"has_dialogue"`
	HasVisualDirection bool    `json:"has_visual_direction"`
	Provider           string  `json:"provider"`
	Model              string  `json:"model,omitempty"`
	AspectRatio        string  `json:"aspect_ratio"`
	CostUSD            float64 `json:"cost_usd"`

	// Creative fields, set only when generative enrichment ran.
	VisualDirection string `json:"visual_direction,omitempty"`
	Rating          Rating `json:"rating,omitempty"`
	Feedback        string `json:"feedback,omitempty"`
}

// Rewrite is a suggested replacement for one scene, keyed by its position.
type Rewrite struct {
	Position   int    `json:"position"`
	Suggestion string `json:"suggestion"`
}

// ScriptAnalysis is the full planning output for one script.
type ScriptAnalysis struct {
	Platform         Platform `json:"platform"`
	Scenes           []Scene  `json:"scenes"`
	WordCount        int      `json:"word_count"`
	TotalDurationSec int      `json:"total_duration_sec"`
	TotalCostUSD     float64  `json:"total_cost_usd"`
	Warnings         []string `json:"warnings,omitempty"`

	// Enrichment fields, present only when the generative pass succeeded.
	Enriched          bool      `json:"enriched"`
	OverallFeedback   string    `json:"overall_feedback,omitempty"`
	NarrativeArc      string    `json:"narrative_arc,omitempty"`
	SuggestedRewrites []Rewrite `json:"suggested_rewrites,omitempty"`
}

// SceneEdit overrides individual scene fields before a plan is finalized.
// Nil fields keep the analyzed value.
type SceneEdit struct {
	Position    int     `json:"position"`
	Provider    *string `json:"provider,omitempty"`
	Model       *string `json:"model,omitempty"`
	DurationSec *int    `json:"duration_sec,omitempty"`
	AspectRatio *string `json:"aspect_ratio,omitempty"`
}

// PlanScene is one scene of a committed render plan.
type PlanScene struct {
	Position    int     `json:"position"`
	Excerpt     string  `json:"excerpt"`
	Prompt      string  `json:"prompt"`
	DurationSec int     `json:"duration_sec"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model,omitempty"`
	AspectRatio string  `json:"aspect_ratio"`
	CostUSD     float64 `json:"cost_usd"`
}

// RenderPlan is a finalized, provider-assigned sequence of scenes ready for submission.
type RenderPlan struct {
	ID               string      `json:"id"`
	Platform         Platform    `json:"platform"`
	Scenes           []PlanScene `json:"scenes"`
	TotalDurationSec int         `json:"total_duration_sec"`
	TotalCostUSD     float64     `json:"total_cost_usd"`
	Stitch           bool        `json:"stitch"` // scenes must be joined into one asset afterwards
}

// JobState is the lifecycle state of one render job.
type JobState string

const (
	JobQueued     JobState = "queued"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"

	// JobUnknown marks a job whose polling was abandoned (timeout or caller
	// cancellation). The upstream job may still be running; it is not failed.
	JobUnknown JobState = "unknown"
)

// Terminal reports whether the state is final from the provider's point of view.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// rank orders states so transitions never regress. Unknown is an observer-side
// verdict, not a provider state, and ranks alongside the terminal states.
func (s JobState) rank() int {
	switch s {
	case JobQueued:
		return 0
	case JobProcessing:
		return 1
	default:
		return 2
	}
}

// CanTransition reports whether moving from s to next is a legal, monotonic step.
func (s JobState) CanTransition(next JobState) bool {
	if s.Terminal() || s == JobUnknown {
		return false
	}
	return next.rank() >= s.rank()
}

// RenderJob is the runtime record of one scene executing on one provider.
type RenderJob struct {
	ScenePosition     int      `json:"scene_position"`
	Provider          string   `json:"provider"`
	JobID             string   `json:"job_id,omitempty"` // opaque, assigned by the adapter
	State             JobState `json:"state"`
	Progress          int      `json:"progress,omitempty"` // 0-100
	OutputRef         string   `json:"output_ref,omitempty"`
	RequiresAuthFetch bool     `json:"requires_auth_fetch,omitempty"`
	Error             string   `json:"error,omitempty"`
	Attempts          int      `json:"attempts"`
}

// RenderResult is the aggregate outcome of driving one plan to completion.
type RenderResult struct {
	PlanID    string      `json:"plan_id"`
	Jobs      []RenderJob `json:"jobs"`
	Completed int         `json:"completed"`
	Failed    int         `json:"failed"`
	Unknown   int         `json:"unknown"`
}

// AllCompleted reports whether every scene reached completed.
func (r *RenderResult) AllCompleted() bool {
	return r.Completed == len(r.Jobs)
}
