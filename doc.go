/*
Package proxymap provides the routing decision layer of a reverse proxy
gateway, with runtime updates of the routing rules.

For every inbound request path, proxymap decides whether the request is
passed through untouched, excluded because it targets the gateway's own
error rendering path, bypassed because an earlier processing stage already
picked the destination, or dispatched to the generic proxy handler bound to
a matched route. The path pattern to handler mapping is kept in an immutable
route table generation that is rebuilt lazily whenever the underlying route
source changes, without locking out concurrent request traffic.

Routes come from route sources: a YAML routes file, the service catalog of a
Consul agent, or any implementation of the routing.RouteSource interface.
Sources can be combined; the Consul source additionally watches the catalog
with blocking queries and invalidates the route table on change.

The actual upstream call is not part of this module. A dispatched request is
handed to the proxy.Forwarder collaborator together with the resolved route,
which carries the logical backend location, the remaining forward path, the
retryability hint and the sensitive header set.

# Usage

The Run function wires the packages into a servable gateway:

	err := proxymap.Run(context.Background(), proxymap.Options{
		Address:    ":9090",
		RoutesFile: "routes.yaml",
		Forwarder:  myForwarder,
	})

Embedders that own their HTTP stack use the packages directly: a route
source from dataclients/routefile or dataclients/consul, a dispatch engine
from routing, and the Handler function as the boundary between the two and
net/http.

The individual packages document their details:

  - routing: the dispatch engine, the route table and the RouteSource
    contract
  - route: the immutable route value
  - pathmatch: Ant-style path pattern matching and specificity ordering
  - dataclients/routefile, dataclients/consul: route sources
  - proxy: the generic route handler and the Forwarder boundary
  - metrics, logging: Prometheus metrics and logrus setup
*/
package proxymap
