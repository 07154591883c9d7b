// Command clipforge manages video generation projects from the terminal:
// creating projects, running generation, applying editing operations, and
// serving the HTTP API for UI frontends.
package main
