package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Notifier delivers alerts to an external channel.
type Notifier interface {
	Notify(ctx context.Context, alerts []Alert) error
}

type slackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier posting to a Slack incoming webhook.
func NewSlackNotifier(webhookURL string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// maxSectionFields is the number of fields Slack accepts in one section
// block.
const maxSectionFields = 10

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts alerts as a single message. No request is made when alerts
// is empty.
func (s *slackNotifier) Notify(ctx context.Context, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(buildSlackMessage(alerts))
	if err != nil {
		return fmt.Errorf("marshalling slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// rootAlerts is the alerts of one inventory root in evaluation order.
type rootAlerts struct {
	root   string
	alerts []Alert
}

// groupByRoot groups alerts by root, keeping roots in order of first
// appearance.
func groupByRoot(alerts []Alert) []rootAlerts {
	var groups []rootAlerts
	index := make(map[string]int)
	for _, a := range alerts {
		i, ok := index[a.Root]
		if !ok {
			i = len(groups)
			index[a.Root] = i
			groups = append(groups, rootAlerts{root: a.Root})
		}
		groups[i].alerts = append(groups[i].alerts, a)
	}
	return groups
}

// buildSlackMessage lays alerts out as one section per inventory root, each
// alert a field naming its severity and condition.
func buildSlackMessage(alerts []Alert) slackMessage {
	groups := groupByRoot(alerts)
	summary := fmt.Sprintf("%d inventory alert(s) across %d root(s)", len(alerts), len(groups))

	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: "stm inventory alerts"}},
		{Type: "context", Elements: []slackText{{
			Type: "mrkdwn",
			Text: fmt.Sprintf("%s, evaluated %s", summary, alerts[0].TriggeredAt.Format("2006-01-02 15:04 UTC")),
		}}},
	}

	for _, g := range groups {
		root := g.root
		if root == "" {
			root = "unknown root"
		}
		blocks = append(blocks, slackBlock{Type: "divider"}, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Inventory* `%s`", root)},
		})

		fields := make([]slackText, 0, len(g.alerts))
		for _, a := range g.alerts {
			fields = append(fields, slackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("%s *%s* %s\n%s",
					severityEmoji(a.Severity), strings.ToUpper(string(a.Severity)), a.Condition, a.Message),
			})
		}
		for len(fields) > 0 {
			n := min(len(fields), maxSectionFields)
			blocks = append(blocks, slackBlock{Type: "section", Fields: fields[:n]})
			fields = fields[n:]
		}
	}

	return slackMessage{Text: summary, Blocks: blocks}
}

func severityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	case SeverityLow:
		return "\U0001f535"
	default:
		return "❓"
	}
}
