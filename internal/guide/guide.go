// Package guide holds the onboarding reference material (account setup
// steps, dev environment notes, workflow and tool links) and renders it as
// Markdown.
package guide

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/marcus/onboard/internal/checklist"
	"github.com/marcus/onboard/internal/models"
)

//go:embed guide.yaml
var defaultGuideYAML []byte

// Link is an external reference attached to a step.
type Link struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// Step is one instruction, optionally with a link.
type Step struct {
	Text string `yaml:"text"`
	Link *Link  `yaml:"link,omitempty"`
}

// Account is the setup guide for one account checklist item.
type Account struct {
	ID       string   `yaml:"id"`
	Purpose  string   `yaml:"purpose"`
	Steps    []Step   `yaml:"steps"`
	Pitfalls []string `yaml:"pitfalls"`
	Owner    string   `yaml:"owner"`
}

// WorkflowStep is one stage of the delivery workflow.
type WorkflowStep struct {
	Title  string `yaml:"title"`
	Detail string `yaml:"detail"`
}

// Tool is a recommended tool with its homepage.
type Tool struct {
	Label string `yaml:"label"`
	Tag   string `yaml:"tag"`
	Desc  string `yaml:"desc"`
	URL   string `yaml:"url"`
}

// Content is the full guide document.
type Content struct {
	Accounts []Account                             `yaml:"accounts"`
	Dev      map[models.Platform]map[string]string `yaml:"dev"`
	Workflow []WorkflowStep                        `yaml:"workflow"`
	Tools    []Tool                                `yaml:"tools"`
}

// Parse decodes a guide document and checks its shape.
func Parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse guide: %w", err)
	}
	seen := make(map[string]bool, len(c.Accounts))
	for i, a := range c.Accounts {
		if a.ID == "" {
			return nil, fmt.Errorf("parse guide: account %d has no id", i)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("parse guide: duplicate account %q", a.ID)
		}
		seen[a.ID] = true
	}
	return &c, nil
}

var loadDefault = sync.OnceValues(func() (*Content, error) {
	return Parse(defaultGuideYAML)
})

// Default returns the embedded guide.
func Default() (*Content, error) {
	return loadDefault()
}

// Account returns the guide for an account item.
func (c *Content) Account(id string) (Account, bool) {
	for _, a := range c.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// Topics lists the names Render accepts, sorted.
func (c *Content) Topics() []string {
	topics := []string{checklist.SectionAccounts, checklist.SectionDev, checklist.SectionTools, checklist.SectionWorkflow}
	for _, a := range c.Accounts {
		topics = append(topics, a.ID)
	}
	sort.Strings(topics)
	return topics
}

// Render returns the Markdown for a topic: a section id or an account
// item id. The dev section is rendered for platform.
func (c *Content) Render(topic string, platform models.Platform) (string, error) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	switch topic {
	case "", checklist.SectionAccounts:
		return c.renderAccounts(), nil
	case checklist.SectionDev:
		return c.renderDev(platform), nil
	case checklist.SectionTools:
		return c.renderTools(), nil
	case checklist.SectionWorkflow:
		return c.renderWorkflow(), nil
	}
	if a, ok := c.Account(topic); ok {
		return renderAccount(a), nil
	}
	return "", fmt.Errorf("unknown guide topic %q (try: %s)", topic, strings.Join(c.Topics(), ", "))
}

func (c *Content) renderAccounts() string {
	var sb strings.Builder
	sb.WriteString("# " + checklist.SectionTitle(checklist.SectionAccounts) + "\n\n")
	titles := map[string]string{}
	for _, it := range checklist.DefaultAccountItems() {
		titles[it.ID] = it.Title
	}
	for _, a := range c.Accounts {
		fmt.Fprintf(&sb, "- **%s** `%s`: %s\n", titles[a.ID], a.ID, a.Purpose)
	}
	sb.WriteString("\nRun `onboard guide <id>` for step-by-step instructions.\n")
	return sb.String()
}

func renderAccount(a Account) string {
	var sb strings.Builder
	title := a.ID
	for _, it := range checklist.DefaultAccountItems() {
		if it.ID == a.ID {
			title = it.Title
		}
	}
	fmt.Fprintf(&sb, "# %s\n\n%s\n\n## 步骤\n\n", title, a.Purpose)
	for i, s := range a.Steps {
		fmt.Fprintf(&sb, "%d. %s", i+1, s.Text)
		if s.Link != nil {
			fmt.Fprintf(&sb, " [%s](%s)", s.Link.Label, s.Link.Href)
		}
		sb.WriteString("\n")
	}
	if len(a.Pitfalls) > 0 {
		sb.WriteString("\n## 常见问题\n\n")
		for _, p := range a.Pitfalls {
			sb.WriteString("- " + p + "\n")
		}
	}
	if a.Owner != "" {
		fmt.Fprintf(&sb, "\n负责人：%s\n", a.Owner)
	}
	return sb.String()
}

func (c *Content) renderDev(platform models.Platform) string {
	if platform == "" {
		platform = models.PlatformPC
	}
	notes := c.Dev[platform]
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s (%s)\n\n", checklist.SectionTitle(checklist.SectionDev), platform)
	for _, topic := range checklist.DevTopics() {
		note := notes[topic]
		if note == "" {
			note = "（待补充）"
		}
		fmt.Fprintf(&sb, "## %s `%s`\n\n%s\n\n", topic, checklist.DevReadKey(platform, topic), note)
	}
	sb.WriteString("Mark a topic read with `onboard read <topic>`.\n")
	return sb.String()
}

func (c *Content) renderWorkflow() string {
	var sb strings.Builder
	sb.WriteString("# " + checklist.SectionTitle(checklist.SectionWorkflow) + "\n\n")
	for i, s := range c.Workflow {
		fmt.Fprintf(&sb, "%d. **%s**: %s\n", i+1, s.Title, s.Detail)
	}
	return sb.String()
}

func (c *Content) renderTools() string {
	var sb strings.Builder
	sb.WriteString("# " + checklist.SectionTitle(checklist.SectionTools) + "\n\n")
	for _, t := range c.Tools {
		fmt.Fprintf(&sb, "- [%s](%s) `%s`: %s\n", t.Label, t.URL, t.Tag, t.Desc)
	}
	return sb.String()
}
