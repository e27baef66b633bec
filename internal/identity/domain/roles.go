// Package domain defines the role vocabulary for production teams.
// This is the single source of truth for role tags: every module that
// needs a role name consumes it from here and never re-declares the
// mapping.
package domain

import (
	"fmt"
	"sort"
	"strings"
)

// RoleTag identifies a function within a production team.
type RoleTag string

const (
	RoleProducer          RoleTag = "producer"
	RoleCreative          RoleTag = "creative"
	RoleMusicArranger     RoleTag = "music_arranger"
	RoleSoundEngineer     RoleTag = "sound_engineer"
	RoleProductionSupport RoleTag = "production_support"
	RoleEditor            RoleTag = "editor"
	RoleArtSet            RoleTag = "art_set"
	RoleDesign            RoleTag = "design"
	RolePromotion         RoleTag = "promotion"
	RoleQualityControl    RoleTag = "quality_control"
	RoleBroadcasting      RoleTag = "broadcasting"
)

// Global roles live on the user record itself, outside any team. They
// gate program-level operations rather than episode work items.
const (
	GlobalManagerProgram      = "manager_program"
	GlobalDistributionManager = "distribution_manager"
	GlobalProducer            = "producer"
	GlobalEditor              = "editor"
	GlobalCrew                = "crew"
)

// displayNames maps role tags to the names shown in rosters and
// notifications.
var displayNames = map[RoleTag]string{
	RoleProducer:          "Producer",
	RoleCreative:          "Creative",
	RoleMusicArranger:     "Music Arranger",
	RoleSoundEngineer:     "Sound Engineer",
	RoleProductionSupport: "Production Support",
	RoleEditor:            "Editor",
	RoleArtSet:            "Art & Set",
	RoleDesign:            "Design",
	RolePromotion:         "Promotion",
	RoleQualityControl:    "Quality Control",
	RoleBroadcasting:      "Broadcasting",
}

// PipelineRoles returns every role that participates in the production
// pipeline, in a stable order. Deadline generation creates one deadline
// per entry.
func PipelineRoles() []RoleTag {
	tags := make([]RoleTag, 0, len(displayNames))
	for tag := range displayNames {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// DisplayName returns the human-readable name for a role tag.
func DisplayName(tag RoleTag) string {
	if name, ok := displayNames[tag]; ok {
		return name
	}
	return string(tag)
}

// ParseRoleTag validates a raw role string.
func ParseRoleTag(raw string) (RoleTag, error) {
	tag := RoleTag(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := displayNames[tag]; !ok {
		return "", fmt.Errorf("unknown role tag %q", raw)
	}
	return tag, nil
}

// Valid reports whether the tag is a known team role.
func (t RoleTag) Valid() bool {
	_, ok := displayNames[t]
	return ok
}
