package domain

// CommonIssues are the quick-pick issue descriptions offered to requesters.
var CommonIssues = []string{
	"I can't log in to my email account.",
	"My printer is not working.",
	"The Wi-Fi is slow or disconnecting frequently.",
	"My computer is running very slowly.",
	"I need to request access to a shared folder.",
}
