package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/kenaz-moc/internal/index"
	"github.com/starford/kenaz-moc/internal/moc"
	"github.com/starford/kenaz-moc/internal/mocservice"
	"github.com/starford/kenaz-moc/internal/storage"
	"github.com/starford/kenaz-moc/internal/testutil"
)

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func testServer(t *testing.T) (*Server, storage.Provider, *index.DB) {
	t.Helper()
	store, db := testutil.SyncedVault(t, map[string]string{
		"Videos/Talk.md":        "---\ntitle: Go Talk\nctime: 2024-03-05T10:00:00Z\ncategories: [\"[[Programming]]\"]\n---\n",
		"Videos/Intro.md":       "---\nctime: 2024-01-01T00:00:00Z\n---\nSee [[Talk]].\n",
		"Topics/Programming.md": "# Programming\n",
	})
	svc := mocservice.NewService(store, db, mocservice.Config{
		Output:  "MOC.md",
		Folders: []string{"Videos/"},
		Indexes: []moc.IndexSpec{{Field: "categories", Label: "Category"}},
	}, testutil.Logger())
	return New(svc, store, db, "Assets"), store, db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "render_moc":
		result, err = srv.renderMOC(ctx, req)
	case "publish_moc":
		result, err = srv.publishMOC(ctx, req)
	case "list_pages":
		result, err = srv.listPages(ctx, req)
	case "resolve_link":
		result, err = srv.resolveLink(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	case "save_cover":
		result, err = srv.saveCover(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestRenderMOC(t *testing.T) {
	srv, _, _ := testServer(t)

	r := callTool(t, srv, "render_moc", nil)
	if r.IsError {
		t.Fatalf("render_moc failed: %s", resultText(r))
	}
	text := resultText(r)
	for _, want := range []string{"### Talk", "### Intro", "## Category Index"} {
		if !strings.Contains(text, want) {
			t.Errorf("render missing %q:\n%s", want, text)
		}
	}

	r = callTool(t, srv, "render_moc", map[string]interface{}{"folders": "Topics/, "})
	if r.IsError {
		t.Fatalf("render_moc with folders failed: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, "### Programming") || strings.Contains(text, "### Talk") {
		t.Errorf("folder override ignored:\n%s", text)
	}

	r = callTool(t, srv, "render_moc", map[string]interface{}{"folders": "../etc"})
	if !r.IsError {
		t.Error("expected error for folder outside the vault")
	}
}

func TestPublishMOC(t *testing.T) {
	srv, store, _ := testServer(t)

	r := callTool(t, srv, "publish_moc", nil)
	if r.IsError {
		t.Fatalf("publish_moc failed: %s", resultText(r))
	}
	var res mocservice.Result
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !res.Written || res.Output != "MOC.md" || res.Pages != 2 {
		t.Errorf("result = %+v", res)
	}
	if res.Markdown != "" {
		t.Error("publish result should not echo the markdown")
	}
	data, err := store.Read("MOC.md")
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "### Talk") {
		t.Errorf("output note:\n%s", data)
	}
}

func TestListPages(t *testing.T) {
	srv, _, _ := testServer(t)

	r := callTool(t, srv, "list_pages", map[string]interface{}{"folder": "Videos/"})
	if r.IsError {
		t.Fatalf("list_pages failed: %s", resultText(r))
	}
	var pages []mocservice.PageSummary
	if err := json.Unmarshal([]byte(resultText(r)), &pages); err != nil {
		t.Fatalf("decode pages: %v", err)
	}
	if len(pages) != 2 || pages[0].Path != "Videos/Talk.md" {
		t.Errorf("pages = %+v", pages)
	}
}

func TestResolveLink(t *testing.T) {
	srv, _, _ := testServer(t)

	r := callTool(t, srv, "resolve_link", map[string]interface{}{"link": "[[Talk]]"})
	if r.IsError {
		t.Fatalf("resolve_link failed: %s", resultText(r))
	}
	var target mocservice.Target
	if err := json.Unmarshal([]byte(resultText(r)), &target); err != nil {
		t.Fatalf("decode target: %v", err)
	}
	if target.Path != "Videos/Talk.md" || len(target.Backlinks) != 1 {
		t.Errorf("target = %+v", target)
	}

	r = callTool(t, srv, "resolve_link", map[string]interface{}{"link": "Nowhere"})
	if !r.IsError || !strings.Contains(resultText(r), "unresolved") {
		t.Errorf("expected unresolved error, got %q", resultText(r))
	}

	r = callTool(t, srv, "resolve_link", nil)
	if !r.IsError {
		t.Error("expected error for missing link argument")
	}
}

func TestGetNoteContract(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_note_contract", nil)
	if r.IsError || resultText(r) != NoteFormatContract {
		t.Errorf("unexpected contract result: %q", resultText(r))
	}
}

func TestSaveCover_DataURI(t *testing.T) {
	srv, store, db := testServer(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(pngHeader))
	r := callTool(t, srv, "save_cover", map[string]interface{}{"url": uri, "filename": "../talk cover.png"})
	if r.IsError {
		t.Fatalf("save_cover failed: %s", resultText(r))
	}
	var out coverResult
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Path != "Assets/talk_cover.png" || out.Cover != "[[talk_cover.png]]" || out.Embed != "![[talk_cover.png|200]]" {
		t.Errorf("result = %+v", out)
	}
	if _, err := store.Read(out.Path); err != nil {
		t.Errorf("cover not written: %v", err)
	}
	if _, ok := db.ResolveLink("talk_cover.png"); !ok {
		t.Error("saved cover does not resolve")
	}

	r = callTool(t, srv, "save_cover", map[string]interface{}{"url": uri, "filename": "talk cover.png"})
	if !r.IsError || !strings.Contains(resultText(r), "already exists") {
		t.Errorf("expected duplicate error, got %q", resultText(r))
	}
}

func TestSaveCover_Rejects(t *testing.T) {
	srv, _, _ := testServer(t)

	png := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(pngHeader))
	cases := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing url", nil, "url"},
		{"pdf", map[string]interface{}{"url": "data:application/pdf;base64,JVBERi0x"}, "unsupported MIME"},
		{"wrong extension", map[string]interface{}{"url": png, "filename": "notes.txt"}, "unsupported file extension"},
		{"bad content", map[string]interface{}{"url": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text")), "filename": "x.png"}, "does not match"},
		{"loopback", map[string]interface{}{"url": "http://127.0.0.1/cover.png"}, "blocked host"},
		{"scheme", map[string]interface{}{"url": "ftp://example.com/cover.png"}, "unsupported scheme"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := callTool(t, srv, "save_cover", tc.args)
			if !r.IsError || !strings.Contains(resultText(r), tc.want) {
				t.Errorf("result = %q, want error containing %q", resultText(r), tc.want)
			}
		})
	}
}

func TestReadNoteFormatResource(t *testing.T) {
	srv, _, _ := testServer(t)
	contents, err := srv.readNoteFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != formatResourceURI || tc.Text != NoteFormatContract {
		t.Errorf("resource = %+v", contents[0])
	}
}

func TestToolsRegistered(t *testing.T) {
	srv, _, _ := testServer(t)

	msg := srv.MCPServer().HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"render_moc", "publish_moc", "list_pages", "resolve_link", "get_note_contract", "save_cover"} {
		if !strings.Contains(string(out), `"`+name+`"`) {
			t.Errorf("tools/list missing %s: %s", name, out)
		}
	}
}
