package banner

import "fmt"

const banner = `
██████╗ ██╗      █████╗ ██╗   ██╗██████╗  █████╗  ██████╗██╗  ██╗██████╗
██╔══██╗██║     ██╔══██╗╚██╗ ██╔╝██╔══██╗██╔══██╗██╔════╝██║ ██╔╝██╔══██╗
██████╔╝██║     ███████║ ╚████╔╝ ██████╔╝███████║██║     █████╔╝ ██║  ██║
██╔═══╝ ██║     ██╔══██║  ╚██╔╝  ██╔══██╗██╔══██║██║     ██╔═██╗ ██║  ██║
██║     ███████╗██║  ██║   ██║   ██████╔╝██║  ██║╚██████╗██║  ██╗██████╔╝
╚═╝     ╚══════╝╚═╝  ╚═╝   ╚═╝   ╚═════╝ ╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝╚═════╝
`

// Print emits the startup banner with key runtime facts.
func Print(addr, dbPath, scriptsDir, version string, docScripts int) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", addr)
	fmt.Printf("Catalog:   %s\n", dbPath)
	fmt.Printf("Scripts:   %s (%d document scripts)\n", scriptsDir, docScripts)
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST   /v1/sessions                               - open a playback session")
	fmt.Println("GET    /v1/sessions/{id}/threads/{thread}         - poll transcript snapshot")
	fmt.Println("POST   /v1/sessions/{id}/threads/{thread}/visible - trigger a scripted thread")
	fmt.Println("POST   /v1/sessions/{id}/threads/{thread}/replies - submit a user reply")
	fmt.Println("GET    /v1/documents                              - list catalog documents")
}
