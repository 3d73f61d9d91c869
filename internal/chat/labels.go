package chat

import (
	"fmt"

	"github.com/ehrlich-b/wingchat/internal/ws"
)

// Labels holds the user-facing strings the store writes into synthesized
// messages and shell entries. Agent UIs differ only in these and in
// Profile-level settings, so one store serves all of them.
type Labels struct {
	ToolExecuting string `yaml:"tool_executing,omitempty"`
	ToolCompleted string `yaml:"tool_completed,omitempty"`
	ToolStatus    string `yaml:"tool_status,omitempty"`
	LongRunning   string `yaml:"long_running,omitempty"`
	Error         string `yaml:"error,omitempty"`
	ShellError    string `yaml:"shell_error,omitempty"`
	NotConnected  string `yaml:"not_connected,omitempty"`

	// DisplayNames maps tool names to friendlier names in tool messages.
	DisplayNames map[string]string `yaml:"display_names,omitempty"`
}

// DefaultLabels returns the English labels.
func DefaultLabels() Labels {
	return Labels{
		ToolExecuting: "Executing tool",
		ToolCompleted: "Tool completed",
		ToolStatus:    "Tool status update",
		LongRunning:   "long running",
		Error:         "Error",
		ShellError:    "Command execution error",
		NotConnected:  "Not connected to server",
	}
}

// ChineseLabels returns the labels the original web UIs shipped with.
func ChineseLabels() Labels {
	return Labels{
		ToolExecuting: "正在执行工具",
		ToolCompleted: "工具执行完成",
		ToolStatus:    "工具状态更新",
		LongRunning:   "长时间运行",
		Error:         "错误",
		ShellError:    "Command execution error",
		NotConnected:  "Not connected to server",
	}
}

// LabelsFor picks the label set for a locale; unknown locales get English.
func LabelsFor(locale string) Labels {
	switch locale {
	case "zh", "zh-CN", "zh_CN":
		return ChineseLabels()
	default:
		return DefaultLabels()
	}
}

// Merge returns l with every empty field filled from base.
func (l Labels) Merge(base Labels) Labels {
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&l.ToolExecuting, base.ToolExecuting)
	fill(&l.ToolCompleted, base.ToolCompleted)
	fill(&l.ToolStatus, base.ToolStatus)
	fill(&l.LongRunning, base.LongRunning)
	fill(&l.Error, base.Error)
	fill(&l.ShellError, base.ShellError)
	fill(&l.NotConnected, base.NotConnected)
	if len(l.DisplayNames) == 0 {
		l.DisplayNames = base.DisplayNames
	}
	return l
}

func (l Labels) toolName(name string) string {
	if dn, ok := l.DisplayNames[name]; ok && dn != "" {
		return dn
	}
	return name
}

// ToolContent renders the markdown line shown for a tool frame.
func (l Labels) ToolContent(name, status string, longRunning bool, result string) string {
	name = l.toolName(name)
	switch status {
	case ws.ToolExecuting:
		icon := "🔧"
		suffix := ""
		if longRunning {
			icon = "⏳"
			suffix = fmt.Sprintf(" (%s)", l.LongRunning)
		}
		return fmt.Sprintf("%s %s: **%s**%s", icon, l.ToolExecuting, name, suffix)
	case ws.ToolCompleted:
		if result != "" {
			return fmt.Sprintf("✅ %s: **%s**\n```json\n%s\n```", l.ToolCompleted, name, result)
		}
		return fmt.Sprintf("✅ %s: **%s**", l.ToolCompleted, name)
	default:
		return fmt.Sprintf("📊 %s: **%s** - %s", l.ToolStatus, name, status)
	}
}

// ErrorContent renders the assistant message synthesized from an error frame.
func (l Labels) ErrorContent(content string) string {
	return fmt.Sprintf("❌ %s: %s", l.Error, content)
}
