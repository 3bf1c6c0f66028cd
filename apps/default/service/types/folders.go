package types

import "fmt"

// SystemFolderNames is the fixed, ordered taxonomy provisioned for every project.
// A folder's sort order is its index in this list.
var SystemFolderNames = []string{
	"Documents",
	"Drawings",
	"Photos",
	"3D Models",
	"360 Tours",
	"RFIs",
	"Submittals",
	"Schedule",
	"Budget",
	"Reports",
	"Safety",
	"Correspondence",
	"Closeout",
	"Daily Logs",
	"Misc",
}

// SystemFolderRoot is the display root of every provisioned folder path.
const SystemFolderRoot = "Project Sandbox"

// FolderPath builds the human readable path of a project folder.
func FolderPath(projectName, folderName string) string {
	return fmt.Sprintf("%s/%s/%s", SystemFolderRoot, projectName, folderName)
}

// IsSystemFolderName reports whether name belongs to the fixed taxonomy.
func IsSystemFolderName(name string) bool {
	for _, n := range SystemFolderNames {
		if n == name {
			return true
		}
	}
	return false
}
