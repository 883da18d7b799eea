// Package services holds the logic that sits between the HTTP handlers and
// the stores when a request needs more than a single store call.
//
// # Available Services
//
//	- HealthService: liveness, readiness and version reporting
//	- MessageService: stores emergency messages and fans them out to
//	  websocket subscribers
//
// Services receive their collaborators through small interfaces declared
// next to the service, so tests can substitute testify mocks:
//
//	st := new(mockMessageStore)
//	st.On("InsertMessage", mock.Anything, mock.Anything).Return(msg, nil)
//	svc := NewMessageService(st, hub, logger)
package services
