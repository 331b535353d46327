package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
	s.displaySessionInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                    - Health check")
	fmt.Println("  GET    /stats                     - Server statistics")
	fmt.Println("  POST   /analyze                   - Analyze resume against a job description")
	fmt.Println("  POST   /rescore                   - Score resume text against job description text")
	fmt.Println("  GET    /sessions/{id}             - Current session result")
	fmt.Println("  DELETE /sessions/{id}             - Discard a session")
	fmt.Println("  POST   /sessions/{id}/skills      - Add a skill and rescore")
	fmt.Println("  GET    /sessions/{id}/report      - Download analysis report (?format=text|markdown|json)")
	fmt.Println("  GET    /sessions/{id}/resume.pdf  - Download updated resume")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /analyze, /rescore and /sessions")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	fmt.Printf("Upload limit: %d bytes per file, %d bytes per request\n", s.MaxFileSize, s.MaxRequestSize)
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
	}
}

func (s *Server) displaySessionInfo() {
	if s.sessions == nil {
		return
	}
	stats := s.sessions.GetStats()
	fmt.Printf("Refinement sessions: max %v, idle TTL %v\n", stats["max_sessions"], stats["session_ttl"])
	if s.promptWatch != nil {
		fmt.Printf("Prompt hot reload: ENABLED (%d files)\n", len(s.promptWatch.WatchedFiles()))
	}
}
