/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import "github.com/charmbracelet/lipgloss"

// Dracula theme colors.
const (
	draculaCyan    = "#8BE9FD"
	draculaGreen   = "#50FA7B"
	draculaPurple  = "#BD93F9"
	draculaRed     = "#FF5555"
	draculaComment = "#6272A4"
)

type styles struct {
	online, offline, detail, header, cell, border lipgloss.Style
}

func newStyles() styles {
	return styles{
		online:  lipgloss.NewStyle().Foreground(lipgloss.Color(draculaGreen)).Bold(true),
		offline: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaRed)).Bold(true),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment)),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan)).Bold(true).Padding(0, 1),
		cell:    lipgloss.NewStyle().Padding(0, 1),
		border:  lipgloss.NewStyle().Foreground(lipgloss.Color(draculaPurple)),
	}
}
