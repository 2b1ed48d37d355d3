// internal/model/models.go
package model

// Project is the normalized public representation of one GitHub repository.
// Defaulting for absent upstream fields happens in internal/github; the JSON
// shape is what the site's project cards consume.
type Project struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	FullName      string   `json:"fullName"`
	Description   string   `json:"description"`
	URL           string   `json:"url"`
	Homepage      string   `json:"homepage,omitempty"`
	Stars         int      `json:"stars"`
	Forks         int      `json:"forks"`
	Watchers      int      `json:"watchers"`
	OpenIssues    int      `json:"openIssues"`
	Language      *string  `json:"language"`
	Languages     []string `json:"languages"`
	Topics        []string `json:"topics"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
	PushedAt      string   `json:"pushedAt"`
	Size          int      `json:"size"`
	DefaultBranch string   `json:"defaultBranch"`

	// Exclusion filters; consulted by the aggregator, never displayed.
	IsPrivate  bool `json:"-"`
	IsFork     bool `json:"-"`
	IsArchived bool `json:"-"`
}

// ProfileStats is the aggregate header shown next to the project grid.
type ProfileStats struct {
	Followers   int `json:"followers"`
	PublicRepos int `json:"publicRepos"`
	TotalStars  int `json:"totalStars"`
}

// Chat roles accepted from the widget.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is one turn in an assistant conversation. Ordering is
// caller-supplied and significant.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the outcome of a dispatch attempt. Provider identifies the
// upstream that produced Content, or the sentinel tag when every provider
// failed. Ephemeral; never persisted.
type ChatReply struct {
	Content  string `json:"reply"`
	Provider string `json:"provider"`
}

// Dispatch is a lead notification parsed from the terminal's DISPATCH
// command. Sent at most once, discarded after the relay attempt.
type Dispatch struct {
	Identity string `json:"identity"`
	Email    string `json:"email"`
	Brief    string `json:"brief"`
}

// Order is a commission request from the multi-step form. Validation tags
// mirror the form schema; see intake.Service.
type Order struct {
	ProjectType string `json:"projectType" validate:"required,oneof=website fullstack ai threejs other"`
	ProjectName string `json:"projectName" validate:"required,min=2"`
	Description string `json:"description" validate:"required,min=10,max=300"`
	Budget      string `json:"budget" validate:"required"`
	Timeline    string `json:"timeline" validate:"required"`
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	LinkedIn    string `json:"linkedin,omitempty" validate:"omitempty,url"`
}
