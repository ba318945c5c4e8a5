// Package toolkit holds the static operational templates surfaced on the
// toolkit page. These are fixed documents, not generated content.
package toolkit

// Template is one ready-to-share operational document.
type Template struct {
	ID          string
	Title       string
	Description string
	Content     string
}

// Templates returns the built-in operational documents in display order.
func Templates() []Template {
	return templates
}

// ByID returns the template with the given id, or false.
func ByID(id string) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

var templates = []Template{
	{
		ID:          "patrol-checklist",
		Title:       "Daily Patrol Checklist",
		Description: "Standard exterior and interior patrol logs.",
		Content: `🛡️ *ANTI-RISK PERIMETER PATROL CHECKLIST*

*Guard Name:* ____________________
*Shift:* ____________________

*EXTERIOR*
[ ] Perimeter Fencing: Intact/No breaches
[ ] Lighting: All exterior lights functional
[ ] Gates: Locked & Secured
[ ] Vehicles: No unauthorized parking
[ ] Windows: Ground floor secure

*INTERIOR*
[ ] Entrances: Clear of obstructions
[ ] Fire Exits: Unlocked & Clear
[ ] Fire Extinguishers: Present & Charged
[ ] Server Room: Locked
[ ] Hazards: No leaks/wires exposed

*Notes/Incidents:*
_____________________________________
_____________________________________

*– AntiRisk Management*`,
	},
	{
		ID:          "incident-report",
		Title:       "Incident Report Form (5Ws)",
		Description: "The standard 5Ws format for critical incidents.",
		Content: `📝 *INCIDENT REPORT FORM*

*1. TYPE:* (Theft, Assault, Damage, Medical, Fire)
_____________________________________

*2. TIME & DATE:*
Date: __/__/____  Time: ____:____

*3. LOCATION:*
_____________________________________

*4. WHO:*
(Names of persons involved, witnesses, staff)
_____________________________________

*5. WHAT (Narrative):*
(Detailed chronological account of events)
_____________________________________
_____________________________________

*6. ACTION TAKEN:*
(Police called? First Aid? Evacuation?)
_____________________________________

*Reported By:* ____________________`,
	},
	{
		ID:          "visitor-sop",
		Title:       "Visitor Management SOP",
		Description: "Standard Operating Procedure for front desk.",
		Content: `🛑 *SOP: VISITOR ENTRY PROTOCOL*

1. *GREET & STOP*
   - Stand, smile, and verbally greet.
   - "Welcome to AntiRisk secured site. How can I help you?"

2. *VERIFY*
   - Ask for Purpose of Visit.
   - Request Government ID (Keep until exit if required by site policy).

3. *CONFIRM*
   - Call the host employee.
   - *Rule:* NO entry without host confirmation.

4. *LOG & BADGE*
   - Record: Name, ID, Time In, Host Name.
   - Issue "Visitor" badge (Visible at chest level).

5. *ESCORT*
   - Direct or escort to the waiting area.

6. *EXIT*
   - Collect badge.
   - Record Time Out.

*– AntiRisk Management*`,
	},
}
