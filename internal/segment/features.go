package segment

import "regexp"

// Dialogue is flagged on quoted speech or direct address to the audience;
// visual direction on shot/camera/footage vocabulary. Both are cheap keyword
// heuristics, not NLP.
var (
	quotedRe  = regexp.MustCompile(`["“«][^"”»]{2,}["”»]`)
	addressRe = regexp.MustCompile(`(?i)\b(you|your|you're|let's|we're|welcome|hey|hi there|folks|everyone|imagine|subscribe|sign up|join|ask yourself|call to action)\b`)
	visualRe  = regexp.MustCompile(`(?i)\b(shot|camera|close-?up|wide angle|pan|zoom|cut to|b-?roll|footage|montage|drone|aerial|overlay|on[- ]screen|show|reveal|visual|dashboard|timelapse|slow[- ]motion|transition|graphic|animation)\b`)
)

// Features tags one fragment with its dialogue and visual-direction flags.
func Features(text string) (hasDialogue, hasVisualDirection bool) {
	hasDialogue = quotedRe.MatchString(text) || addressRe.MatchString(text)
	hasVisualDirection = visualRe.MatchString(text)
	return hasDialogue, hasVisualDirection
}
