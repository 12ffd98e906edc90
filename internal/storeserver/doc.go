// Package storeserver serves a component store over HTTP.
//
// # Endpoints
//
//	GET  /api/component/{id}        {id, code} or 404 {"error":"Not found"}
//	PUT  /api/component/{id}        body {code}; {message, code}
//	POST /api/component/reset/{id}  {id, message, code}; 404 without original
//	POST /api/component             body {id?, code}; 201 {id, code}
//	GET  /api/components            {ids}
//	GET  /healthz                   {status, version, backend}
//	GET  /preview/{id}              the component as an editable page
//	GET  /ws/edit/{id}              browser editing bridge (websocket)
//
// Error bodies are {"error": "..."} with an optional "details" field.
// Saves are last-write-wins; the server does no merging.
//
// Preview pages and bridge markup pass through a bluemonday policy, so a
// stored component cannot run script in the editing browser.
package storeserver
