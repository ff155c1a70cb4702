package llm

import "fmt"

func SkillContent() string {
	return `# Toolbelt Skill

Use toolbelt reports to get an overview before opening many files.

Workflow:
1. Run toolbelt prompt-pack --path . for README, stats, TODOs, bugs, secrets and the tree.
2. Run toolbelt code-outline-py or markdown-heading-index to find where things live.
3. Use toolbelt chunk --file <path> to read one large file in pieces.
4. Reports land in context_out/ as <command>_<timestamp>.md; read the newest one.
`
}

func AdapterBlock(provider string) string {
	names := map[string]string{"codex": "Codex", "claude": "Claude"}
	name := names[provider]
	if name == "" {
		name = provider
	}
	return fmt.Sprintf(`# Toolbelt Integration (%s)

Prefer toolbelt reports over broad file reads.

1. Run toolbelt prompt-pack at session start.
2. Follow %s.
3. Run toolbelt list to see every report.
`, name, SkillPath)
}

func CursorRuleContent() string {
	return fmt.Sprintf(`---
description: Use toolbelt reports for project context
alwaysApply: true
---

Run toolbelt prompt-pack first and read the newest report in context_out/.
Use %s as primary guidance.
`, SkillPath)
}
