package tools

import "net/http"

func fileDefinitions() []*Definition {
	return []*Definition{
		{
			Name:        "list_project_files",
			Category:    catFiles,
			Description: "List files in a project directory.",
			Method:      http.MethodGet,
			Paths:       []string{projectBase + "/files/{path}", projectBase + "/files"},
			Params: one(
				projectParam(),
				Param{Name: "path", Type: String, In: InPath, RawPath: true, Description: "Directory relative to the project root (default: root)"},
			),
			Success: "Found {count} files",
			ListKey: "files",
		},
		{
			Name:        "delete_project_file",
			Category:    catFiles,
			Description: "Delete a file or directory from a project.",
			Method:      http.MethodDelete,
			Paths:       []string{projectBase + "/files"},
			Params: one(
				projectParam(),
				Param{Name: "file_path", Type: String, In: InQuery, Key: "path", Required: true, Description: "Path relative to the project root"},
			),
			Success: "Successfully deleted '{file_path}'",
		},
		{
			Name:        "update_project_file_metadata",
			Category:    catFiles,
			Description: "Update a project file's description or hidden flag.",
			Method:      http.MethodPatch,
			Paths:       []string{projectBase + "/files/{file_path}"},
			Params: one(
				projectParam(),
				Param{Name: "file_path", Type: String, In: InPath, RawPath: true, Required: true, Description: "Path relative to the project root"},
				bodyParam("description", String, "File description"),
				bodyParam("hidden", Boolean, "Hide the file"),
			),
			Success: "Successfully updated metadata for '{file_path}'",
		},
		{
			Name:        "upload_file",
			Category:    catFiles,
			Description: "Upload a local file into a project.",
			Params: one(
				projectParam(),
				Param{Name: "file_path", Type: String, In: InLocal, Required: true, Description: "Local path of the file to upload"},
				Param{Name: "target_name", Type: String, In: InLocal, Description: "Name to store the file under (default: local file name)"},
				Param{Name: "target_dir", Type: String, In: InLocal, Description: "Project directory to upload into (default: root)"},
			),
			Run: uploadFile,
		},
		{
			Name:        "upload_folder",
			Category:    catFiles,
			Description: "Upload a local folder into a project, preserving its layout.",
			Params: one(
				projectParam(),
				Param{Name: "folder_path", Type: String, In: InLocal, Required: true, Description: "Local folder to upload"},
				Param{Name: "ignore_folders", Type: Array, In: InLocal, Coerce: CoerceList, Description: "Folder names to skip in addition to the defaults"},
				Param{Name: "target_dir", Type: String, In: InLocal, Description: "Project directory to upload into (default: root)"},
			),
			Run: uploadFolder,
		},
	}
}
