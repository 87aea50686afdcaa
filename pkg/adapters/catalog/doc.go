/*
Package catalog provides the beer catalog behind ports.Catalog.

Three pieces live here:

  - Repository: an in-memory catalog loaded from CSV files (an embedded sample
    data set ships with the package). It implements ports.Catalog directly.
  - NewHandler: a chi HTTP API exposing the Repository under /api.
  - Client: a ports.Catalog speaking to that API over HTTP with retries.
*/
package catalog
