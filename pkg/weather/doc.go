// Package weather implements the get_weather tool: one OpenWeatherMap lookup
// reduced to a single human-readable sentence.
//
// Lookup never returns an error. A missing key, a failed request and an
// unexpected payload each produce their own sentence so the model can relay
// the problem to the user.
package weather
