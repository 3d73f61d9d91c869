package ui

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	// Message styles
	UserMessage        lipgloss.Style
	UserMessageContent lipgloss.Style
	AgentMessage       lipgloss.Style
	SystemMessage      lipgloss.Style
	ErrorMessage       lipgloss.Style
	Timestamp          lipgloss.Style

	// Cards
	ToolCard      lipgloss.Style
	ToolHeader    lipgloss.Style
	AssistantCard lipgloss.Style
	AssistantHead lipgloss.Style

	// Shell log
	ShellCommand lipgloss.Style
	ShellOutput  lipgloss.Style
	ShellError   lipgloss.Style

	// Sessions and files
	Title          lipgloss.Style
	CurrentSession lipgloss.Style
	Session        lipgloss.Style
	Directory      lipgloss.Style
	File           lipgloss.Style
	CodeBlock      lipgloss.Style

	// Connection status
	Connected    lipgloss.Style
	Connecting   lipgloss.Style
	Disconnected lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		UserMessage: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // Blue
			Bold(true).
			MarginLeft(2),

		UserMessageContent: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")), // Light gray

		AgentMessage: lipgloss.NewStyle().
			Foreground(lipgloss.Color("76")), // Green

		SystemMessage: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Gray
			Italic(true).
			MarginLeft(2),

		ErrorMessage: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true).
			MarginLeft(2),

		Timestamp: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),

		ToolCard: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1),

		ToolHeader: lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")). // Bright blue
			Bold(true),

		AssistantCard: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("13")).
			Padding(0, 1),

		AssistantHead: lipgloss.NewStyle().
			Foreground(lipgloss.Color("13")). // Bright magenta
			Bold(true),

		ShellCommand: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")). // Yellow
			Bold(true),

		ShellOutput: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		ShellError: lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")),

		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),

		CurrentSession: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),

		Session: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		Directory: lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true),

		File: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		CodeBlock: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),

		Connected:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Connecting:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Disconnected: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}
