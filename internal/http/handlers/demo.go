package handlers

import "net/http"

const demoPageHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>DialBook - AI Appointment Booking</title>
  <style>
    :root { --fg: #1a1a2e; --accent: #4361ee; --muted: #6b7280; }
    * { box-sizing: border-box; }
    body { margin: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f3f4f6; color: var(--fg); }
    .wrap { max-width: 560px; margin: 40px auto; padding: 0 16px; }
    .card { background: #fff; border-radius: 12px; padding: 28px; box-shadow: 0 2px 10px rgba(0,0,0,0.06); }
    h1 { font-size: 22px; margin: 0 0 4px; }
    .sub { color: var(--muted); font-size: 14px; margin-bottom: 20px; }
    label { display: block; font-size: 13px; font-weight: 600; margin: 14px 0 4px; }
    input, select { width: 100%; padding: 9px 10px; border: 1px solid #d1d5db; border-radius: 8px; font-size: 14px; }
    button { margin-top: 20px; width: 100%; padding: 11px; border: 0; border-radius: 8px; background: var(--accent); color: #fff; font-size: 15px; font-weight: 600; cursor: pointer; }
    button:disabled { opacity: 0.5; cursor: default; }
    .hidden { display: none; }
    .status { text-align: center; padding: 24px 0; }
    .status .badge { display: inline-block; padding: 4px 14px; border-radius: 999px; font-size: 13px; font-weight: 600; background: #e0e7ff; color: var(--accent); }
    .status .badge.confirmed { background: #d1fae5; color: #047857; }
    .status .badge.failed { background: #fee2e2; color: #b91c1c; }
    .spinner { margin: 18px auto; width: 28px; height: 28px; border: 3px solid #e5e7eb; border-top-color: var(--accent); border-radius: 50%; animation: spin 0.8s linear infinite; }
    @keyframes spin { to { transform: rotate(360deg); } }
    .transcript { margin-top: 16px; padding: 12px; background: #f9fafb; border-radius: 8px; font-size: 13px; color: var(--muted); white-space: pre-wrap; text-align: left; }
    .error { margin-top: 12px; color: #b91c1c; font-size: 13px; }
    .again { background: #e5e7eb; color: var(--fg); }
  </style>
</head>
<body>
  <div class="wrap">
    <div class="card">
      <h1>Book an appointment</h1>
      <div class="sub">An AI agent calls the provider on your behalf.</div>

      <form id="form">
        <label for="serviceType">Service type</label>
        <input id="serviceType" placeholder="e.g. dentist, salon, plumber" required>

        <label for="dateFrom">Earliest date</label>
        <input id="dateFrom" type="date">

        <label for="dateTo">Latest date</label>
        <input id="dateTo" type="date">

        <label for="timeWindow">Preferred time</label>
        <select id="timeWindow">
          <option value="anytime">Anytime</option>
          <option value="morning">Morning</option>
          <option value="afternoon">Afternoon</option>
          <option value="evening">Evening</option>
        </select>

        <label for="location">Location</label>
        <input id="location" placeholder="e.g. New York, NY">

        <label for="urgency">Urgency</label>
        <select id="urgency">
          <option value="flexible">Flexible</option>
          <option value="asap">As soon as possible</option>
        </select>

        <button id="submit" type="submit">Request appointment</button>
        <div id="formError" class="error hidden"></div>
      </form>

      <div id="progress" class="status hidden">
        <div class="badge" id="statusBadge">PENDING</div>
        <div class="spinner"></div>
        <div class="sub" id="progressNote">Placing the call...</div>
      </div>

      <div id="result" class="status hidden">
        <div class="badge" id="resultBadge"></div>
        <div class="sub" id="resultMessage"></div>
        <div class="transcript hidden" id="transcript"></div>
        <button class="again" id="again" type="button">Book another</button>
      </div>
    </div>
  </div>

  <script>
    const POLL_MS = 3000;
    const $ = (id) => document.getElementById(id);
    let pollTimer = null;

    function show(id) {
      for (const section of ["form", "progress", "result"]) {
        $(section).classList.toggle("hidden", section !== id);
      }
    }

    async function submit(e) {
      e.preventDefault();
      $("formError").classList.add("hidden");
      $("submit").disabled = true;

      const body = {
        serviceType: $("serviceType").value.trim(),
        preferredTimeWindow: $("timeWindow").value,
        urgency: $("urgency").value,
      };
      if ($("dateFrom").value) body.preferredDateFrom = $("dateFrom").value + "T00:00:00Z";
      if ($("dateTo").value) body.preferredDateTo = $("dateTo").value + "T00:00:00Z";
      if ($("location").value.trim()) body.location = $("location").value.trim();

      try {
        const res = await fetch("/appointments", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify(body),
        });
        const data = await res.json();
        if (!res.ok) throw new Error(data.error || "Failed to create appointment");

        if (data.status === "FAILED") {
          renderResult({ id: data.id, status: "FAILED", result: { error: data.message }, callLog: null });
          return;
        }
        show("progress");
        poll(data.id);
      } catch (err) {
        $("formError").textContent = err.message;
        $("formError").classList.remove("hidden");
      } finally {
        $("submit").disabled = false;
      }
    }

    function poll(id) {
      pollTimer = setInterval(async () => {
        try {
          const res = await fetch("/appointments/" + id + "/status");
          if (!res.ok) return;
          const data = await res.json();
          $("statusBadge").textContent = data.status;
          if (data.status === "CALLING") $("progressNote").textContent = "On the phone with the provider...";
          if (data.status === "CONFIRMED" || data.status === "FAILED") {
            clearInterval(pollTimer);
            const resultRes = await fetch("/appointments/" + id + "/result");
            renderResult(await resultRes.json());
          }
        } catch (err) {
          // Keep polling; transient fetch failures are expected in dev.
        }
      }, POLL_MS);
    }

    function renderResult(data) {
      const badge = $("resultBadge");
      badge.textContent = data.status;
      badge.className = "badge " + (data.status === "CONFIRMED" ? "confirmed" : "failed");

      let message = "";
      if (data.result) {
        if (data.status === "CONFIRMED") {
          message = (data.result.message || "Appointment confirmed") +
            (data.result.confirmedTime ? " at " + data.result.confirmedTime : "");
        } else {
          message = data.result.error || data.result.reason || "The call could not be completed.";
        }
      }
      $("resultMessage").textContent = message;

      const transcript = $("transcript");
      if (data.callLog && data.callLog.transcript) {
        transcript.textContent = data.callLog.transcript;
        transcript.classList.remove("hidden");
      } else {
        transcript.classList.add("hidden");
      }
      show("result");
    }

    $("form").addEventListener("submit", submit);
    $("again").addEventListener("click", () => {
      if (pollTimer) clearInterval(pollTimer);
      $("form").reset();
      show("form");
    });
  </script>
</body>
</html>
`

// DemoPage renders the booking demo UI that submits a request and polls the
// status endpoint until the appointment reaches a terminal state.
// Route: GET /
func DemoPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(demoPageHTML))
}
