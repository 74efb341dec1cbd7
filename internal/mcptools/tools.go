package mcptools

import "github.com/dusk-indust/voxflow/internal/desktop"

// --- MCP Tool Input Types ---
// The MCP Go SDK derives each tool's JSON schema from these struct tags.

// OpenApplicationInput is the input for the openApplication tool.
type OpenApplicationInput struct {
	BundleIdentifier string `json:"bundleIdentifier" jsonschema:"bundle identifier of the application, e.g. com.apple.Safari"`
	Activate         *bool  `json:"activate,omitempty" jsonschema:"bring the application to the front (default: true)"`
}

// OpenApplicationOutput is the result of the openApplication tool.
type OpenApplicationOutput struct {
	BundleIdentifier string `json:"bundleIdentifier"`
	Activated        bool   `json:"activated"`
}

// OpenURLInput is the input for the openURL tool.
type OpenURLInput struct {
	URL      string `json:"url" jsonschema:"absolute URL to open, e.g. https://example.com or mailto:someone@example.com"`
	Activate *bool  `json:"activate,omitempty" jsonschema:"bring the handling application to the front (default: true)"`
}

// OpenURLOutput is the result of the openURL tool.
type OpenURLOutput struct {
	URL       string `json:"url"`
	Activated bool   `json:"activated"`
}

// ListApplicationsInput is the input for the listApplications tool.
type ListApplicationsInput struct {
	Query string `json:"query,omitempty" jsonschema:"case-insensitive substring matched against name and bundle identifier"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 50, max: 200)"`
}

// ListApplicationsOutput is the result of the listApplications tool.
type ListApplicationsOutput struct {
	Applications []desktop.Application `json:"applications"`
	Total        int                   `json:"total"`
	Truncated    bool                  `json:"truncated"`
}

// GetClipboardTextInput is the input for the getClipboardText tool.
type GetClipboardTextInput struct{}

// GetClipboardTextOutput is the result of the getClipboardText tool.
type GetClipboardTextOutput struct {
	Text    string   `json:"text"`
	HasText bool     `json:"hasText"`
	Types   []string `json:"types"`
}

// GetSelectedTextInput is the input for the getSelectedText tool.
type GetSelectedTextInput struct {
	TimeoutMilliseconds int `json:"timeoutMilliseconds,omitempty" jsonschema:"how long to wait for the copy to land (default: 800, range: 50-5000)"`
}

// GetSelectedTextOutput is the result of the getSelectedText tool.
type GetSelectedTextOutput struct {
	Text string `json:"text"`
}
