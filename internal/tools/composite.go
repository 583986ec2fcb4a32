package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/cml"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/logging"
)

const (
	listPageSize = 100
	// maxPages stops a misbehaving server that keeps returning the same token.
	maxPages = 200
)

// defaultIgnoredFolders are never uploaded by upload_folder.
var defaultIgnoredFolders = []string{
	".git", ".hg", ".svn", "__pycache__", ".ipynb_checkpoints",
	".venv", "venv", "node_modules", ".idea", ".vscode", ".mypy_cache", ".pytest_cache",
}

// listAll pages through a list tool and returns the concatenated items.
func listAll(ctx context.Context, h *Handler, tool, key string, args map[string]any) ([]map[string]any, error) {
	var out []map[string]any
	token := ""
	for page := 0; page < maxPages; page++ {
		call := map[string]any{"page_size": listPageSize}
		for k, v := range args {
			call[k] = v
		}
		if token != "" {
			call["page_token"] = token
		}
		data, err := h.run(ctx, tool, call)
		if err != nil {
			return nil, err
		}
		resp, _ := data.(map[string]any)
		items, _ := resp[key].([]any)
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		next, _ := resp["next_page_token"].(string)
		if next == "" || next == token || len(items) == 0 {
			return out, nil
		}
		token = next
	}
	return out, nil
}

func getProjectID(ctx context.Context, h *Handler, a Args) (string, any, error) {
	name := strings.TrimSpace(a.String("project_name"))
	projects, err := listAll(ctx, h, "list_projects", "projects", nil)
	if err != nil {
		return "", nil, err
	}

	summary := func(p map[string]any) map[string]any {
		return map[string]any{"id": stringify(p["id"]), "name": stringify(p["name"])}
	}

	if name == "*" {
		all := make([]map[string]any, 0, len(projects))
		for _, p := range projects {
			all = append(all, summary(p))
		}
		return fmt.Sprintf("Found %d projects", len(all)), map[string]any{"projects": all}, nil
	}

	var partial []map[string]any
	for _, p := range projects {
		pname := stringify(p["name"])
		if strings.EqualFold(pname, name) {
			return fmt.Sprintf("Found project '%s'", pname), map[string]any{
				"project_id": stringify(p["id"]),
				"name":       pname,
			}, nil
		}
		if strings.Contains(strings.ToLower(pname), strings.ToLower(name)) {
			partial = append(partial, summary(p))
		}
	}

	switch len(partial) {
	case 0:
		return "", nil, &cml.Error{Kind: cml.KindInvalidParam, Message: fmt.Sprintf("Project '%s' not found", name)}
	case 1:
		return fmt.Sprintf("Found project '%s'", partial[0]["name"]), map[string]any{
			"project_id": partial[0]["id"],
			"name":       partial[0]["name"],
		}, nil
	default:
		return "", nil, &cml.Error{
			Kind:    cml.KindInvalidParam,
			Message: fmt.Sprintf("Project '%s' not found; %d projects partially match", name, len(partial)),
			Details: map[string]any{"candidates": partial},
		}
	}
}

func deleteAllJobs(ctx context.Context, h *Handler, a Args) (string, any, error) {
	projectID := a.String("project_id")
	jobs, err := listAll(ctx, h, "list_jobs", "jobs", map[string]any{"project_id": projectID})
	if err != nil {
		return "", nil, err
	}
	if len(jobs) == 0 {
		return "No jobs to delete", map[string]any{"deleted": []string{}, "failed": []any{}}, nil
	}

	log := logging.FromContext(ctx)
	deleted := []string{}
	failed := []map[string]any{}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return "", nil, cml.ContextError(err)
		}
		id := stringify(job["id"])
		if id == "" {
			continue
		}
		if _, err := h.run(ctx, "delete_job", map[string]any{"project_id": projectID, "job_id": id}); err != nil {
			log.Warn("delete job failed", zap.String("job_id", id), zap.Error(err))
			failed = append(failed, map[string]any{"job_id": id, "name": stringify(job["name"]), "message": cml.Fail(err).Message})
			continue
		}
		deleted = append(deleted, id)
	}

	data := map[string]any{"deleted": deleted, "failed": failed}
	msg := fmt.Sprintf("Deleted %d of %d jobs", len(deleted), len(jobs))
	if len(failed) > 0 {
		return "", nil, &cml.Error{Kind: cml.KindHTTPStatus, Message: msg, Details: data}
	}
	return msg, data, nil
}

func uploadFile(ctx context.Context, h *Handler, a Args) (string, any, error) {
	local := a.String("file_path")
	name := a.String("target_name")
	if name == "" {
		name = filepath.Base(local)
	}
	target := projectPath(a.String("target_dir"), name)

	resp, size, err := h.upload(ctx, a.String("project_id"), local, target)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Successfully uploaded '%s' to '%s'", local, target), map[string]any{
		"file_path":   local,
		"target_path": target,
		"size":        size,
		"response":    resp,
	}, nil
}

func uploadFolder(ctx context.Context, h *Handler, a Args) (string, any, error) {
	root := filepath.Clean(a.String("folder_path"))
	info, err := os.Stat(root)
	if err != nil {
		return "", nil, cml.InvalidParam("Folder not found: %s", root)
	}
	if !info.IsDir() {
		return "", nil, cml.InvalidParam("Not a folder: %s", root)
	}

	ignored := map[string]bool{}
	for _, f := range append(defaultIgnoredFolders, a.Strings("ignore_folders")...) {
		if f = strings.Trim(strings.TrimSpace(f), "/"); f != "" {
			ignored[f] = true
		}
	}

	log := logging.FromContext(ctx)
	projectID := a.String("project_id")
	targetDir := a.String("target_dir")
	uploaded := []string{}
	failed := []map[string]any{}
	skipped := []string{}

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cml.ContextError(cerr)
		}
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if p != root && (ignored[d.Name()] || ignored[rel]) {
				skipped = append(skipped, rel)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		target := projectPath(targetDir, rel)
		if _, _, err := h.upload(ctx, projectID, p, target); err != nil {
			log.Warn("upload failed", zap.String("file", p), zap.Error(err))
			failed = append(failed, map[string]any{"file": rel, "message": cml.Fail(err).Message})
			return nil
		}
		uploaded = append(uploaded, target)
		return nil
	})
	if walkErr != nil {
		return "", nil, walkErr
	}

	data := map[string]any{"uploaded": uploaded, "failed": failed, "skipped_folders": skipped}
	msg := fmt.Sprintf("Uploaded %d files from '%s'", len(uploaded), root)
	if len(failed) > 0 {
		msg = fmt.Sprintf("%s, %d failed", msg, len(failed))
		if len(uploaded) == 0 {
			return "", nil, &cml.Error{Kind: cml.KindHTTPStatus, Message: msg, Details: data}
		}
	}
	return msg, data, nil
}

// upload sends one local file as a multipart PUT to the project's files
// endpoint.
func (h *Handler) upload(ctx context.Context, projectID, local, target string) (any, int, error) {
	info, err := os.Stat(local)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, cml.InvalidParam("File not found: %s", local)
		}
		return nil, 0, cml.InvalidParam("Cannot read %s: %v", local, err)
	}
	if !info.Mode().IsRegular() {
		return nil, 0, cml.InvalidParam("Not a file: %s", local)
	}
	content, err := os.ReadFile(local)
	if err != nil {
		return nil, 0, cml.InvalidParam("Cannot read %s: %v", local, err)
	}

	resp, err := h.client.Do(ctx, cml.Request{
		Method: http.MethodPut,
		Path:   apiV2Projects + "/" + url.PathEscape(projectID) + "/files",
		Multipart: &cml.Multipart{
			Fields:    map[string]string{"path": target},
			FileField: "file",
			FileName:  path.Base(target),
			Content:   content,
		},
	})
	return resp, len(content), err
}

// projectPath joins a project-relative directory and name with forward
// slashes and no leading slash.
func projectPath(dir, name string) string {
	return strings.TrimPrefix(path.Join("/", filepath.ToSlash(dir), filepath.ToSlash(name)), "/")
}
