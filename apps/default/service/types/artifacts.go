package types

import (
	"fmt"
	"sort"
)

// ArtifactKind is the closed set of structured record kinds that produce files.
type ArtifactKind string

const (
	ArtifactRFI            ArtifactKind = "rfi"
	ArtifactSubmittal      ArtifactKind = "submittal"
	ArtifactPunchList      ArtifactKind = "punch_list"
	ArtifactDailyLog       ArtifactKind = "daily_log"
	ArtifactBudget         ArtifactKind = "budget"
	ArtifactSchedule       ArtifactKind = "schedule"
	ArtifactCloseout       ArtifactKind = "closeout"
	ArtifactPhotoReport    ArtifactKind = "photo_report"
	ArtifactSafetyReport   ArtifactKind = "safety_report"
	ArtifactCorrespondence ArtifactKind = "correspondence"
	ArtifactDrawing        ArtifactKind = "drawing"
	ArtifactPhoto          ArtifactKind = "photo"
	ArtifactModel3D        ArtifactKind = "model_3d"
	ArtifactTour360        ArtifactKind = "tour_360"
	ArtifactDocument       ArtifactKind = "document"
	ArtifactMisc           ArtifactKind = "misc"
)

var artifactFolders = map[ArtifactKind]string{
	ArtifactRFI:            "RFIs",
	ArtifactSubmittal:      "Submittals",
	ArtifactPunchList:      "Closeout",
	ArtifactDailyLog:       "Daily Logs",
	ArtifactBudget:         "Budget",
	ArtifactSchedule:       "Schedule",
	ArtifactCloseout:       "Closeout",
	ArtifactPhotoReport:    "Reports",
	ArtifactSafetyReport:   "Safety",
	ArtifactCorrespondence: "Correspondence",
	ArtifactDrawing:        "Drawings",
	ArtifactPhoto:          "Photos",
	ArtifactModel3D:        "3D Models",
	ArtifactTour360:        "360 Tours",
	ArtifactDocument:       "Documents",
	ArtifactMisc:           "Misc",
}

// ParseArtifactKind validates a kind received at the boundary.
func ParseArtifactKind(value string) (ArtifactKind, error) {
	kind := ArtifactKind(value)
	if _, ok := artifactFolders[kind]; !ok {
		return "", fmt.Errorf("unknown artifact kind %q", value)
	}
	return kind, nil
}

// FolderName returns the system folder an artifact kind is filed under.
func (k ArtifactKind) FolderName() string {
	return artifactFolders[k]
}

// ArtifactKinds lists every known kind in a stable order.
func ArtifactKinds() []ArtifactKind {
	kinds := make([]ArtifactKind, 0, len(artifactFolders))
	for k := range artifactFolders {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
