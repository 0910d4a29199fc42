// Package fallback produces deterministic, offline blueprint templates.
// It is the orchestrator's availability backstop: when every configured
// provider fails, these templates are returned instead of an error.
package fallback

import (
	"time"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

// TemplateModel is the model id stamped on fallback blueprints.
const TemplateModel = "static-template-v1"

// Generator builds the static template set. It performs no network or
// credential access and completes in microseconds.
type Generator struct {
	now func() time.Time
}

// New creates a Generator.
func New() *Generator {
	return &Generator{now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (g *Generator) WithNow(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate returns the generic template set stamped with the given
// industry. The content is fixed; only industry and timestamps vary.
func (g *Generator) Generate(industry, role string) []model.Blueprint {
	if industry == "" {
		industry = "General"
	}
	meta := model.GenerationMetadata{
		Source:    model.SourceSystem,
		Model:     TemplateModel,
		Timestamp: g.now().UTC(),
	}

	return []model.Blueprint{
		{
			Title:      "Automated Inquiry Response System",
			Department: "Customer Service/Sales",
			Industry:   industry,
			PublicView: model.PublicView{
				Problem:             "Missed calls and delayed email responses lead to lost opportunities and lower customer satisfaction.",
				SolutionNarrative:   "Implement an intelligent auto-response system that instantly acknowledges inquiries, answers FAQs, and routes complex issues to the right team member.",
				ValueProposition:    "Capture 100% of leads 24/7 without increasing headcount.",
				ROIEstimate:         "Recapture 15-20% of lost leads; save 10+ hours/week on manual triage.",
				DetailedExplanation: "This system uses rule-based logic to categorize incoming messages. Common queries (hours, pricing, location) are answered immediately. High-value leads are flagged for priority follow-up.",
				ExampleScenario:     "A customer emails at 8 PM asking for a quote. The system replies instantly with a pricing guide and a link to book a consultation.",
				WalkthroughSteps: []string{
					"Audit current inquiry channels (email, phone, form).",
					"Draft standard responses for top 5 FAQs.",
					"Configure auto-responder rules in email/CRM.",
					"Test routing logic with sample inquiries.",
				},
			},
			AdminView: model.AdminView{
				TechStack:                []string{"CRM (HubSpot/Salesforce)", "Email Automation", "Zapier"},
				ImplementationDifficulty: model.DifficultyLow,
				WorkflowSteps:            "Trigger: New Email -> Boolean Check: Is FAQ? -> Yes: Send Template / No: Notify Admin.",
				UpsellOpportunity:        "CRM Integration & Custom Workflow Design",
			},
			Metadata: meta,
		},
		{
			Title:      "Client Onboarding Streamline",
			Department: "Operations",
			Industry:   industry,
			PublicView: model.PublicView{
				Problem:             "Manual onboarding is slow, prone to errors, and creates a poor first impression for new clients.",
				SolutionNarrative:   "Digitize the onboarding flow with a unified portal or automated email sequence that collects documents, signs contracts, and welcomes the client.",
				ValueProposition:    "Reduce onboarding time by 50% and ensure compliance.",
				ROIEstimate:         "Save $500+ per client in administrative labor.",
				DetailedExplanation: "Replace paper forms and scattered emails with a structured digital process. Triggers automatically send reminders for missing information.",
				ExampleScenario:     "New client signs proposal. System automatically sends welcome packet, contract for e-signature, and intake form.",
				WalkthroughSteps: []string{
					"Map out the current onboarding checklist.",
					"Digitize forms using a tool like JotForm or Typeform.",
					"Set up an email sequence to deliver forms.",
					"Automate file storage for completed docs.",
				},
			},
			AdminView: model.AdminView{
				TechStack:                []string{"DocuSign/PandaDoc", "Project Management Tool", "Form Builder"},
				ImplementationDifficulty: model.DifficultyMed,
				WorkflowSteps:            "Proposal Signed -> Send Contracts -> Send Intake Forms -> Create Project Folder.",
				UpsellOpportunity:        "Full Client Portal Development",
			},
			Metadata: meta,
		},
		{
			Title:      "Review Generation Engine",
			Department: "Marketing",
			Industry:   industry,
			PublicView: model.PublicView{
				Problem:             "Lack of recent positive reviews hurts local SEO and trust.",
				SolutionNarrative:   "Automate the request for reviews immediately after a successful service delivery or purchase.",
				ValueProposition:    "Boost Google ranking and conversion rates automatically.",
				ROIEstimate:         "Increase organic traffic by 10-15% within 3 months.",
				DetailedExplanation: "Trigger an SMS or Email request 24 hours after job completion. Direct satisfied customers to Google/Yelp; intercept unsatisfied ones for feedback.",
				ExampleScenario:     "Job marked 'Complete' in field app. System waits 24 hours, then texts client: 'How did we do?' with a link.",
				WalkthroughSteps: []string{
					"Identify the 'Success Trigger' in your process.",
					"Draft a polite, low-friction review request.",
					"Set up the automation trigger.",
					"Monitor new reviews and respond weekly.",
				},
			},
			AdminView: model.AdminView{
				TechStack:                []string{"SMS Marketing Tool", "Reputation Management Software"},
				ImplementationDifficulty: model.DifficultyLow,
				WorkflowSteps:            "Job Closed -> Wait 24h -> Send Request -> If 5-star, thank; If <4, alert manager.",
				UpsellOpportunity:        "Reputation Management Retainer",
			},
			Metadata: meta,
		},
	}
}
