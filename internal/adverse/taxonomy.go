package adverse

import (
	"fmt"
	"strings"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
)

// The closed complication taxonomy. Detections outside this set are treated
// as contract violations, not as new findings.
const (
	EventIrisProlapse            = "Iris Prolapse"
	EventZonularDialysis         = "Zonular Dialysis"
	EventIFIS                    = "IFIS"
	EventPhacoWoundBurn          = "Phaco Wound Burn"
	EventPosteriorCapsuleRupture = "Posterior Capsule Rupture"
	EventVitreousLoss            = "Vitreous Loss"
	EventNucleusDrop             = "Nucleus Drop"
	EventIOLDrop                 = "IOL Drop"
	EventPeripheralRetinalTear   = "Peripheral Retinal Tear"
	EventRetinalHemorrhage       = "Retinal Hemorrhage"
)

var eventAliases = map[string]string{
	"iris prolapse":                         EventIrisProlapse,
	"zonular dialysis":                      EventZonularDialysis,
	"ifis":                                  EventIFIS,
	"intraoperative floppy iris syndrome":   EventIFIS,
	"phaco wound burn":                      EventPhacoWoundBurn,
	"posterior capsule rupture":             EventPosteriorCapsuleRupture,
	"posterior capsule rupture pcr":         EventPosteriorCapsuleRupture,
	"pcr":                                   EventPosteriorCapsuleRupture,
	"vitreous loss":                         EventVitreousLoss,
	"nucleus drop":                          EventNucleusDrop,
	"iol drop":                              EventIOLDrop,
	"intraocular lens drop":                 EventIOLDrop,
	"peripheral retinal tear":               EventPeripheralRetinalTear,
	"retinal hemorrhage":                    EventRetinalHemorrhage,
	"ifis intraoperative floppy iris syndrome": EventIFIS,
}

// CanonicalEvent maps a model-reported complication name onto the taxonomy.
// Parentheticals and punctuation are tolerated; unknown names are not.
func CanonicalEvent(name string) (string, error) {
	key := normalizeEventName(name)
	if canonical, ok := eventAliases[key]; ok {
		return canonical, nil
	}
	return "", services.Wrap(services.ErrSchemaViolation, "adverse_event", "taxonomy",
		fmt.Sprintf("unknown complication %q", name), nil)
}

func normalizeEventName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '(', r == ')', r == '/':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
