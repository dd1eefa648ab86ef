package store

import "time"

// Task priority and status values.
const (
	PriorityLow  = "Low"
	PriorityMed  = "Med"
	PriorityHigh = "High"

	StatusTodo    = "Todo"
	StatusWorking = "Working"
	StatusDone    = "Done"
)

// Briefing slots, in daily order.
const (
	SlotMorning  = "Morning"
	SlotMidday   = "Midday"
	SlotShutdown = "Shutdown"
	SlotNight    = "Night"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMed || p == PriorityHigh
}

// ValidStatus reports whether st is a known status.
func ValidStatus(st string) bool {
	return st == StatusTodo || st == StatusWorking || st == StatusDone
}

// ValidSlot reports whether slot is a known briefing slot.
func ValidSlot(slot string) bool {
	return slot == SlotMorning || slot == SlotMidday || slot == SlotShutdown || slot == SlotNight
}

// Project is a sector grouping tasks. Top-level projects have a nil
// ParentID; ParentName and Path are derived at read time, not stored.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ParentID    *int64    `json:"parent_id"`
	ParentName  string    `json:"parent_name,omitempty"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectPatch is the allow-list of updatable project fields. Nil means
// "leave unchanged".
type ProjectPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	ParentID    *int64  `json:"parent_id"`
}

// TreeNode is a project with its children, for breadcrumb rendering.
type TreeNode struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	ParentID *int64      `json:"parent_id"`
	Children []*TreeNode `json:"children"`
}

// Task is a quest within a project. ProjectName is derived at read time.
type Task struct {
	ID          int64            `json:"id"`
	ProjectID   *int64           `json:"project_id"`
	ProjectName string           `json:"project_name,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Priority    string           `json:"priority"`
	Status      string           `json:"status"`
	Subtasks    []map[string]any `json:"subtasks"`
	NudgeCount  int              `json:"nudge_count"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TaskPatch is the allow-list of updatable task fields.
type TaskPatch struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Priority    *string           `json:"priority"`
	Status      *string           `json:"status"`
	ProjectID   *int64            `json:"project_id"`
	Subtasks    *[]map[string]any `json:"subtasks"`
	NudgeCount  *int              `json:"nudge_count"`
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	ProjectID *int64
	Status    string
	Priority  string
	Limit     int
	Offset    int
}

// DailyLog is one operational day's record. Reflections is a pipe-separated
// list of completed goals; the per-slot briefing columns mirror the newest
// briefing of each slot for older dashboard builds.
type DailyLog struct {
	ID                int64      `json:"id"`
	Date              string     `json:"date"`
	BigWin            string     `json:"big_win"`
	StartingNudge     string     `json:"starting_nudge"`
	MorningBriefing   *string    `json:"morning_briefing"`
	MiddayBriefing    *string    `json:"midday_briefing"`
	ShutdownBriefing  *string    `json:"shutdown_briefing"`
	NightlyReflection *string    `json:"nightly_reflection"`
	GoalsForTomorrow  []string   `json:"goals_for_tomorrow"`
	TimerEnd          *time.Time `json:"timer_end"`
	Reflections       string     `json:"reflections"`
	Briefings         []Briefing `json:"briefings"`
	CreatedAt         time.Time  `json:"created_at"`
}

// DailyLogPatch is the allow-list of updatable daily log fields.
type DailyLogPatch struct {
	BigWin           *string    `json:"big_win"`
	StartingNudge    *string    `json:"starting_nudge"`
	GoalsForTomorrow *[]string  `json:"goals_for_tomorrow"`
	Reflections      *string    `json:"reflections"`
	TimerEnd         *time.Time `json:"timer_end"`
}

// HistoryFilter narrows daily log history listings.
type HistoryFilter struct {
	Limit      int
	Offset     int
	HasMorning bool
	HasNight   bool
}

// Briefing is one timestamped briefing entry within a daily log.
type Briefing struct {
	ID         int64     `json:"id"`
	DailyLogID int64     `json:"daily_log_id"`
	Slot       string    `json:"slot"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
