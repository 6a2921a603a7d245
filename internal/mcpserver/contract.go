package mcpserver

// NoteFormatContract describes the frontmatter the MOC renderer reads and
// the shape of the document it produces.
const NoteFormatContract = `# Kenaz MOC Note Format

The Map of Content lists every note of the configured folders, newest first,
followed by one index per configured field.

## Frontmatter read by the renderer

` + "```" + `markdown
---
title: Go Concurrency Patterns      # shown in the title line; defaults to the file name
url: https://example.com/talk       # the title links here when present
ctime: 2024-03-05T10:00:00Z         # ISO-8601; sorts the page and feeds the year/month indexes
description: One-line summary
categories:
  - "[[Programming]]"               # wiki-links become references to the resolved note
keywords: [concurrency]
tags: [go, video]                   # merged with the #tags written in the body
cover: "[[go-talk.png]]"            # or icon / image; png, jpg, webp or svg
comment: Great talk<br>![[slide.png|300]]
speaker: Rob Pike                   # any other key lands in the additional-info table
---
` + "```" + `

## Rules

1. **ctime** should be a full ISO-8601 timestamp. Notes without it are listed last
   and appear under "Unknown" in the date indexes.
2. **Wiki-links** (` + "`" + `[[target]]` + "`" + ` or ` + "`" + `[[target|label]]` + "`" + `) are resolved like
   Obsidian does: by file name, shortest path first, case-insensitive.
3. **Image embeds** in ` + "`" + `comment` + "`" + ` must carry a width:
   ` + "`" + `![[file.png|300]]` + "`" + `. Embeds of files that do not exist are removed.
4. **Line breaks** in ` + "`" + `comment` + "`" + ` are written as ` + "`" + `<br>` + "`" + `.
5. Keys other than title, url, ctime, description, cover, icon, comment, keywords,
   categories and tags are shown verbatim in the additional-info table; empty values
   are skipped.
6. **The MOC note is generated.** Manual edits are overwritten on the next publish.

## Covers

Use the ` + "`" + `save_cover` + "`" + ` tool to store an image in the vault. It returns the
` + "`" + `cover` + "`" + ` value and an embed ready for ` + "`" + `comment` + "`" + `.
`
