package mcpserver

// TemplateFormatContract describes how templates and plan checklists are
// written so that callers can prepare vault content the pipeline understands.
const TemplateFormatContract = `# Ansuz Template & Plan Format

## Templates

Templates live in the templates folder as ` + "`<Type> Template.md`" + ` or ` + "`<Type>.md`" + `.
A checklist item of type ` + "`Core`" + ` uses ` + "`Core Template.md`" + ` (matching is case-insensitive).
Drafts proposed by the assistant are saved under the drafts folder and are never used
until a human moves them into the templates folder.

Placeholders are ` + "`{{name}}`" + ` markers. Names are case-insensitive; repeated markers
are one field. These are filled locally and never requested from the model:

- ` + "`{{title}}`" + ` item title
- ` + "`{{type}}`" + ` item type
- ` + "`{{parent}}`" + ` parent as a wikilink, empty when none
- ` + "`{{children}}`" + ` children: a YAML list of quoted wikilinks in frontmatter, bullets in the body
- ` + "`{{date}}`" + ` generation date, YYYY-MM-DD

Every other placeholder is generated. List values become YAML lists in frontmatter and
bullet lists in the body. Any placeholder left without a value is removed.

` + "```" + `markdown
---
title: "{{title}}"
type: {{type}}
parent: "{{parent}}"
children: {{children}}
created: {{date}}
---
# {{title}}

{{summary_definition}}

## Key points
{{key_points}}
` + "```" + `

## Plan checklist

Generation reads the plan's Checklist section. Each item must keep this shape;
items whose bold title, backticked type or italic description are edited away are skipped.

` + "```" + `markdown
- [ ] **ML - Gradient Descent** (` + "`Core`" + `)
    - *An optimization algorithm that follows the negative gradient.*
    - Parent: [[Optimization]]
    - Children: [[Learning Rate]], [[Momentum]]
` + "```" + `
`
