// Package stomp connects sockclient to STOMP brokers over WebSocket.
//
// The WebSocket is opened with gorilla/websocket and adapted to an
// io.ReadWriteCloser; go-stomp runs the STOMP protocol on top of it. Each
// STOMP frame travels as one text message, the framing Spring and most
// STOMP-over-WebSocket brokers expect.
//
// # Handshake
//
// CONNECT carries two custom headers understood by the server:
//
//	token:     the credential
//	projectId: the tenant identifier
//
// A rejected credential comes back as an ERROR frame, which surfaces as a
// *ServerError so sockclient.ClassifyServerMessage can recognise it.
//
// # Failure reporting
//
// A session reports asynchronous failures through the onFailure callback
// given to Dial. One broken link is usually reported more than once: once by
// the socket reader and once per live subscription. The sockclient core
// deduplicates these.
//
// # Limitations
//
// SockJS framing is not supported. Point the client at the raw WebSocket
// endpoint (Spring exposes it as <sockjs-endpoint>/websocket).
//
// # Usage
//
//	dialer := stomp.NewDialer(stomp.Config{HeartBeatReceive: 10 * time.Second})
//	client, err := sockclient.New(cfg, dialer)
package stomp
