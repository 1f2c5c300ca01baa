package service

import (
	"context"

	"github.com/ros2go/ros2action/qos"
	"github.com/ros2go/ros2action/rtps"
	"github.com/ros2go/ros2action/wireid"
)

// Server is the server-side ServicePrimitive: it receives requests and
// sends correlated responses over a pair of DDS topics.
type Server[Req any, Resp any] struct {
	reqSub  rtps.Subscriber[requestEnvelope[Req]]
	respPub rtps.Publisher[responseEnvelope[Resp]]
	mapping wireid.ServiceMapping
}

// NewServer creates a Server for the request/reply topic pair
// (reqTopic, respTopic) on participant p.
func NewServer[Req any, Resp any](
	p *rtps.LocalParticipant,
	reqTopic, respTopic string,
	policies qos.Policies,
	mapping wireid.ServiceMapping,
) *Server[Req, Resp] {
	return &Server[Req, Resp]{
		reqSub:  rtps.NewSubscriber[requestEnvelope[Req]](p, reqTopic, policies),
		respPub: rtps.NewPublisher[responseEnvelope[Resp]](p, respTopic, policies),
		mapping: mapping,
	}
}

// ReceiveRequest polls for the next incoming request, non-blocking.
func (s *Server[Req, Resp]) ReceiveRequest() (wireid.RequestId, Req, bool, error) {
	env, ok, err := s.reqSub.Take()
	if err != nil || !ok {
		var zero Req
		return wireid.RequestId{}, zero, false, err
	}
	return env.ID, env.Body, true, nil
}

// SendResponse sends resp correlated to reqID.
func (s *Server[Req, Resp]) SendResponse(reqID wireid.RequestId, resp Resp) error {
	return s.respPub.Publish(responseEnvelope[Resp]{ID: reqID, Body: resp})
}

// AsyncReceiveRequest blocks until the next request arrives or ctx is
// done.
func (s *Server[Req, Resp]) AsyncReceiveRequest(ctx context.Context) (wireid.RequestId, Req, error) {
	env, err := s.reqSub.TakeBlocking(ctx)
	if err != nil {
		var zero Req
		return wireid.RequestId{}, zero, err
	}
	return env.ID, env.Body, nil
}

// ReceiveRequestStream returns a lazily-pulled stream of requests: it
// suspends at Next rather than doing background work when unpolled.
func (s *Server[Req, Resp]) ReceiveRequestStream() *RequestStreamOf[Req, Resp] {
	return &RequestStreamOf[Req, Resp]{server: s}
}

// RequestStreamOf is the concrete stream type returned by
// ReceiveRequestStream; it is generic over both the request and
// response types because it holds a reference back to the Server that
// produced it (needed so a consumer could, in principle, reply
// without a second lookup).
type RequestStreamOf[Req any, Resp any] struct {
	server *Server[Req, Resp]
}

// Next blocks until the next request arrives or ctx is done.
func (r *RequestStreamOf[Req, Resp]) Next(ctx context.Context) (wireid.RequestId, Req, error) {
	return r.server.AsyncReceiveRequest(ctx)
}

// Mapping reports the ServiceMapping this server was constructed with.
func (s *Server[Req, Resp]) Mapping() wireid.ServiceMapping { return s.mapping }

// Shutdown releases the server's subscriber and publisher.
func (s *Server[Req, Resp]) Shutdown() {
	s.reqSub.Shutdown()
	s.respPub.Shutdown()
}
