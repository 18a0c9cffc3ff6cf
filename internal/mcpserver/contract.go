package mcpserver

// ArticleFormat describes the JSON record format folio reads from the
// articles directory.
const ArticleFormat = `# folio Article Format

Each article is one UTF-8 file in the articles directory, named
` + "`" + `<id>.json` + "`" + `. Subdirectories and files starting with a dot are ignored.

## Structure

` + "```" + `json
{
  "id": "hello-world",
  "date": "2018-03-02T05:00:00+00:00",
  "title": "Hello, world",
  "body": "Any other fields are kept as-is."
}
` + "```" + `

## Rules

1. The file holds exactly one JSON object.
2. ` + "`" + `id` + "`" + ` is a required string.
3. ` + "`" + `date` + "`" + ` is a required string in one of these layouts:
   - ` + "`" + `2006-01-02T15:04:05Z07:00` + "`" + ` (RFC 3339, fractional seconds allowed)
   - ` + "`" + `2006-01-02T15:04:05` + "`" + `
   - ` + "`" + `2006-01-02 15:04:05 -0700` + "`" + `
   - ` + "`" + `2006-01-02 15:04:05` + "`" + `
   - ` + "`" + `2006-01-02` + "`" + `
   Dates without a zone are read as UTC.
4. Every other top-level key is passed through unchanged.
5. A single malformed file fails the whole listing until it is fixed.

## Freshness

Changes are picked up on the next read when the file's modification time
changes. Write new content to a temporary file and rename it into place.
Two writes within the same timestamp tick of the file system may not be
told apart.
`
