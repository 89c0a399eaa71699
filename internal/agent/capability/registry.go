package capability

import (
	"fmt"
	"strings"

	"github.com/drcloud/assistant/internal/agent/model"
	documentation "github.com/drcloud/assistant/internal/agent/subagents/documentation"
	"github.com/drcloud/assistant/internal/agent/subagents/labs"
	"github.com/drcloud/assistant/internal/agent/subagents/lifestyle"
	"github.com/drcloud/assistant/internal/agent/subagents/medications"
	"github.com/drcloud/assistant/internal/agent/subagents/specialist"
	"github.com/drcloud/assistant/internal/agent/subagents/symptom"
	"github.com/drcloud/assistant/internal/encounter"
	"github.com/drcloud/assistant/internal/store"
)

// Capability names as they appear in audit metadata.
const (
	SymptomAnalysis       = "symptom_analysis"
	LabInterpretation     = "lab_interpretation"
	MedicationInteraction = "medication_interaction"
	LifestylePrevention   = "lifestyle_prevention"
	SpecialistReferral    = "specialist_referral"
)

// BuildRegistrations creates the dispatcher registrations for all
// routed capabilities plus the documentation capability the router
// invokes on closure. The specialist referral consumes the symptom
// differential and is the only sequenced dependency; everything else
// dispatches concurrently.
func BuildRegistrations(models model.Selector, sink store.DocumentStore) ([]encounter.Registration, encounter.Capability, error) {
	symptomAgent, err := symptom.New(models.For(symptom.AgentName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create symptom agent: %w", err)
	}
	symptomCap, err := newADKCapability(SymptomAnalysis, symptomAgent, renderSymptom)
	if err != nil {
		return nil, nil, err
	}

	labAgent, err := labs.New(models.For(labs.AgentName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create labs agent: %w", err)
	}
	labCap, err := newADKCapability(LabInterpretation, labAgent, renderLabs)
	if err != nil {
		return nil, nil, err
	}

	medAgent, err := medications.New(models.For(medications.AgentName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create medications agent: %w", err)
	}
	medCap, err := newADKCapability(MedicationInteraction, medAgent, renderMedications)
	if err != nil {
		return nil, nil, err
	}

	lifestyleAgent, err := lifestyle.New(models.For(lifestyle.AgentName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create lifestyle agent: %w", err)
	}
	lifestyleCap, err := newADKCapability(LifestylePrevention, lifestyleAgent, renderLifestyle)
	if err != nil {
		return nil, nil, err
	}

	specialistAgent, err := specialist.New(models.For(specialist.AgentName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create specialist agent: %w", err)
	}
	specialistCap, err := newADKCapability(SpecialistReferral, specialistAgent, renderSpecialist)
	if err != nil {
		return nil, nil, err
	}

	docAgent, err := documentation.New(models.For(documentation.AgentName), sink)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create documentation agent: %w", err)
	}
	docCap, err := newADKCapability(encounter.DocumentationCapability, docAgent, renderDocumentation)
	if err != nil {
		return nil, nil, err
	}

	regs := []encounter.Registration{
		{
			Capability: symptomCap,
			Applies:    func(in *encounter.TurnInput) bool { return in.Message != "" || in.SymptomText != "" },
		},
		{
			Capability: labCap,
			Applies:    func(in *encounter.TurnInput) bool { return in.LabReport != "" },
		},
		{
			Capability: medCap,
			Applies:    func(in *encounter.TurnInput) bool { return len(in.Medications) > 0 },
		},
		{
			Capability: lifestyleCap,
			Applies:    func(in *encounter.TurnInput) bool { return len(in.Lifestyle) > 0 },
		},
		{
			Capability: specialistCap,
			DependsOn:  []string{SymptomAnalysis},
			Applies:    func(in *encounter.TurnInput) bool { return in.Message != "" || in.SymptomText != "" },
		},
	}

	return regs, docCap, nil
}

func renderSymptom(in *encounter.TurnInput) string {
	var b strings.Builder
	if in.Message != "" {
		b.WriteString(in.Message)
	}
	if in.SymptomText != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Reported symptoms: ")
		b.WriteString(in.SymptomText)
	}
	return b.String()
}

func renderLabs(in *encounter.TurnInput) string {
	if in.LabReport == "" {
		return ""
	}
	return "Lab report payload:\n" + in.LabReport
}

func renderMedications(in *encounter.TurnInput) string {
	if len(in.Medications) == 0 {
		return ""
	}
	return "Current medication list:\n- " + strings.Join(in.Medications, "\n- ")
}

func renderLifestyle(in *encounter.TurnInput) string {
	if len(in.Lifestyle) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Lifestyle metrics:\n")
	for k, v := range in.Lifestyle {
		fmt.Fprintf(&b, "- %s: %s\n", k, v)
	}
	return b.String()
}

func renderSpecialist(in *encounter.TurnInput) string {
	var b strings.Builder
	if diff := in.Prior[SymptomAnalysis]; diff != "" {
		b.WriteString("Differential diagnosis:\n")
		b.WriteString(diff)
		b.WriteString("\n")
	}
	if in.Message != "" {
		b.WriteString("Patient context: ")
		b.WriteString(in.Message)
	}
	return b.String()
}

func renderDocumentation(in *encounter.TurnInput) string {
	// The router hands the documentation capability a pre-redacted
	// aggregate of the encounter in Message.
	return "Document this encounter and store the note:\n" + in.Message
}
